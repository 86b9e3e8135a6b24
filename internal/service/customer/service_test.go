package customer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/logger"
)

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestCustomers(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	svc := NewService(repos.Users, logger.Nop())

	users := []*model.User{
		{Email: "ann@example.com", Name: "Ann Lee", Phone: "555-1000", Role: model.RoleCustomer},
		{Email: "bob@example.com", Name: "Bob Stone", Phone: "555-2000", Role: model.RoleCustomer},
		{Email: "vet@clinic.test", Name: "Dr. Ann", Role: model.RoleVeterinarian},
	}
	for _, u := range users {
		require.NoError(t, repos.Users.Create(ctx, u))
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.List(ctx, "  ANN ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, users[0].ID, found[0].ID)

	_, err = svc.Get(ctx, users[2].ID)
	assert.Equal(t, apperrors.ErrNotFound, codeOf(t, err))

	_, err = svc.Update(ctx, users[1].ID, &model.UpdateCustomerRequest{Name: "Bob", Email: "ANN@example.com"})
	assert.Equal(t, apperrors.ErrConflict, codeOf(t, err))

	_, err = svc.Update(ctx, users[1].ID, &model.UpdateCustomerRequest{Name: " ", Email: ""})
	assert.Equal(t, apperrors.ErrValidation, codeOf(t, err))

	updated, err := svc.Update(ctx, users[1].ID, &model.UpdateCustomerRequest{Name: "Robert Stone", Email: "Rob@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "rob@example.com", updated.Email)

	require.NoError(t, repos.Pets.Create(ctx, &model.Pet{CustomerID: users[0].ID, PetTypeID: uuid.New(), Name: "Milo"}))
	assert.Equal(t, apperrors.ErrConflict, codeOf(t, svc.Delete(ctx, users[0].ID)))

	require.NoError(t, svc.Delete(ctx, users[1].ID))
	assert.Equal(t, apperrors.ErrNotFound, codeOf(t, svc.Delete(ctx, users[1].ID)))
}
