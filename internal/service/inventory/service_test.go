package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
)

func TestMedicationCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSet().Medications)

	med, err := svc.Create(ctx, &model.MedicationRequest{Name: "Amoxicillin", StockQuantity: 20, UnitPrice: 12.5, PackageSize: "250mg x 10"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, med.ID, &model.MedicationRequest{Name: "Amoxicillin", StockQuantity: 15, UnitPrice: 13})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.StockQuantity)

	got, err := svc.Get(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, 13.0, got.UnitPrice)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, med.ID))
	_, err = svc.Get(ctx, med.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestMedicationValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewSet().Medications)

	_, err := svc.Create(ctx, &model.MedicationRequest{Name: "X", StockQuantity: -1})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Update(ctx, uuid.New(), &model.MedicationRequest{Name: "X"})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteDispensedMedication(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewSet()
	svc := NewService(repos.Medications)

	med, err := svc.Create(ctx, &model.MedicationRequest{Name: "Meloxicam", StockQuantity: 3})
	require.NoError(t, err)
	require.NoError(t, repos.Dispensing.Create(ctx, &model.DispensingEntry{
		TreatmentID: uuid.New(), MedicationID: med.ID, Quantity: 1,
	}))

	err = svc.Delete(ctx, med.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
