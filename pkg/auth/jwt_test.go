package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

func newTestService() *jwtService {
	return &jwtService{
		cfg: Config{
			Secret:    "secret",
			Issuer:    "vetclinic-test",
			AccessTTL: time.Hour,
			VerifyTTL: 2 * time.Hour,
			ResetTTL:  30 * time.Minute,
		},
		now: time.Now,
	}
}

func testUser() *model.User {
	u := &model.User{Email: "owner@example.com", Role: model.RoleCustomer}
	u.ID = uuid.New()
	return u
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	user := testUser()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestPurposeTokenCannotAuthenticate(t *testing.T) {
	svc := newTestService()

	token, err := svc.GeneratePurposeToken(testUser(), PurposeResetPassword)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrPurposeNeeded)

	_, err = svc.ValidatePurposeToken(token, PurposeVerifyEmail)
	assert.ErrorIs(t, err, ErrWrongPurpose)

	claims, err := svc.ValidatePurposeToken(token, PurposeResetPassword)
	require.NoError(t, err)
	assert.Equal(t, PurposeResetPassword, claims.Purpose)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService()
	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	other := newTestService()
	other.cfg.Secret = "another-secret"
	token, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnknownPurpose(t *testing.T) {
	_, err := newTestService().GeneratePurposeToken(testUser(), "launch_rockets")
	assert.Error(t, err)
}
