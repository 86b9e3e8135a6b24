package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

// Token purposes. Access tokens carry no purpose.
const (
	PurposeVerifyEmail   = "verify_email"
	PurposeResetPassword = "reset_password"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrWrongPurpose  = errors.New("token issued for a different purpose")
	ErrPurposeNeeded = errors.New("purpose token cannot be used for access")
)

// Claims is the payload of every token the service issues.
type Claims struct {
	UserID  uuid.UUID  `json:"user_id"`
	Email   string     `json:"email"`
	Role    model.Role `json:"role"`
	Purpose string     `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateAccessToken(user *model.User) (string, error)
	GeneratePurposeToken(user *model.User, purpose string) (string, error)
	ValidateToken(token string) (*Claims, error)
	ValidatePurposeToken(token, purpose string) (*Claims, error)
	AccessTTL() time.Duration
}

type Config struct {
	Secret    string
	Issuer    string
	AccessTTL time.Duration
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

type jwtService struct {
	cfg Config
	now func() time.Time
}

func NewJWTService(cfg Config) JWTService {
	return &jwtService{cfg: cfg, now: time.Now}
}

func (s *jwtService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

func (s *jwtService) GenerateAccessToken(user *model.User) (string, error) {
	return s.sign(user, "", s.cfg.AccessTTL)
}

func (s *jwtService) GeneratePurposeToken(user *model.User, purpose string) (string, error) {
	var ttl time.Duration
	switch purpose {
	case PurposeVerifyEmail:
		ttl = s.cfg.VerifyTTL
	case PurposeResetPassword:
		ttl = s.cfg.ResetTTL
	default:
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	return s.sign(user, purpose, ttl)
}

func (s *jwtService) sign(user *model.User, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ValidateToken accepts access tokens only.
func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrPurposeNeeded
	}
	return claims, nil
}

func (s *jwtService) ValidatePurposeToken(tokenString, purpose string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
