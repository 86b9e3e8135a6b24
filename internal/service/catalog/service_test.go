package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
)

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSet().Catalog, time.Minute)

	created, err := svc.CreateService(ctx, &model.ServiceRequest{Name: " Vaccination ", Duration: 30, Price: 350})
	require.NoError(t, err)
	assert.Equal(t, "Vaccination", created.Name)

	list, err := svc.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := svc.GetService(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Duration)

	updated, err := svc.UpdateService(ctx, created.ID, &model.ServiceRequest{Name: "Vaccination", Duration: 45, Price: 400})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.Duration)

	got, err = svc.GetService(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.Duration, "update invalidates the cached entry")

	list, err = svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400.0, list[0].Price)

	require.NoError(t, svc.DeleteService(ctx, created.ID))
	_, err = svc.GetService(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	list, err = svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSet().Catalog, time.Minute)

	_, err := svc.CreateService(ctx, &model.ServiceRequest{Name: "", Duration: 0, Price: -1})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Len(t, appErr.Details, 3)

	_, err = svc.UpdateService(ctx, uuid.New(), &model.ServiceRequest{Name: "X", Duration: 10})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteReferencedService(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	svc := NewService(repos.Catalog, time.Minute)

	created, err := svc.CreateService(ctx, &model.ServiceRequest{Name: "Checkup", Duration: 30})
	require.NoError(t, err)
	require.NoError(t, repos.Bookings.Create(ctx, &model.Booking{
		ServiceID: created.ID,
		Date:      model.MustDate("2030-01-01"),
		StartTime: model.MustClock("09:00"),
		Status:    model.BookingStatusCompleted,
	}))

	err = svc.DeleteService(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestPetTypes(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSet().Catalog, time.Minute)

	_, err := svc.CreatePetType(ctx, &model.PetTypeRequest{Name: "Dog"})
	require.NoError(t, err)
	_, err = svc.CreatePetType(ctx, &model.PetTypeRequest{Name: "Cat"})
	require.NoError(t, err)

	_, err = svc.CreatePetType(ctx, &model.PetTypeRequest{Name: "dog"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.CreatePetType(ctx, &model.PetTypeRequest{Name: "  "})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	types, err := svc.ListPetTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Cat", types[0].Name)
}
