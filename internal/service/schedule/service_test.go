package schedule

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

func setup(t *testing.T) (*Service, *model.User) {
	t.Helper()
	repos := memory.NewSet()
	vet := &model.User{Email: "vet@example.com", Name: "Dr. Vet", Role: model.RoleVeterinarian}
	require.NoError(t, repos.Users.Create(context.Background(), vet))
	return NewService(repos, logger.Nop()), vet
}

func TestAddShiftsSkipsExistingDays(t *testing.T) {
	ctx := context.Background()
	svc, vet := setup(t)

	first, err := svc.AddShifts(ctx, &model.AddShiftsRequest{
		VetID: vet.ID, Dates: []string{"2030-02-01", "2030-02-02"}, StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	assert.Len(t, first.Created, 2)
	assert.Empty(t, first.Skipped)

	second, err := svc.AddShifts(ctx, &model.AddShiftsRequest{
		VetID: vet.ID, Dates: []string{"2030-02-02", "2030-02-03", "2030-02-03"}, StartTime: "10:00", EndTime: "12:00",
	})
	require.NoError(t, err)
	require.Len(t, second.Created, 1)
	assert.Equal(t, model.MustDate("2030-02-03"), second.Created[0].Date)
	assert.Equal(t, []model.Date{model.MustDate("2030-02-02")}, second.Skipped)

	shifts, err := svc.ListShifts(ctx, vet.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, model.MustClock("09:00"), shifts[1].StartTime, "existing shift is untouched")
	assert.Equal(t, "Dr. Vet", shifts[0].VetName)
}

func TestAddShiftsValidation(t *testing.T) {
	ctx := context.Background()
	svc, vet := setup(t)

	tests := []struct {
		name string
		req  *model.AddShiftsRequest
		code apperrors.ErrorCode
	}{
		{"start after end", &model.AddShiftsRequest{VetID: vet.ID, Dates: []string{"2030-02-01"}, StartTime: "17:00", EndTime: "09:00"}, apperrors.ErrValidation},
		{"empty window", &model.AddShiftsRequest{VetID: vet.ID, Dates: []string{"2030-02-01"}, StartTime: "09:00", EndTime: "09:00"}, apperrors.ErrValidation},
		{"bad date", &model.AddShiftsRequest{VetID: vet.ID, Dates: []string{"01-02-2030"}, StartTime: "09:00", EndTime: "17:00"}, apperrors.ErrValidation},
		{"no dates", &model.AddShiftsRequest{VetID: vet.ID, StartTime: "09:00", EndTime: "17:00"}, apperrors.ErrValidation},
		{"unknown vet", &model.AddShiftsRequest{VetID: uuid.New(), Dates: []string{"2030-02-01"}, StartTime: "09:00", EndTime: "17:00"}, apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddShifts(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), err.Error())
		})
	}
}

func TestUpdateAndDeleteShift(t *testing.T) {
	ctx := context.Background()
	svc, vet := setup(t)

	res, err := svc.AddShifts(ctx, &model.AddShiftsRequest{
		VetID: vet.ID, Dates: []string{"2030-02-01"}, StartTime: "09:00", EndTime: "17:00",
	})
	require.NoError(t, err)
	id := res.Created[0].ID

	updated, err := svc.UpdateShift(ctx, id, &model.UpdateShiftRequest{StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, model.MustClock("08:00"), updated.StartTime)
	assert.Equal(t, model.MustClock("12:00"), updated.EndTime)

	_, err = svc.UpdateShift(ctx, id, &model.UpdateShiftRequest{StartTime: "12:00", EndTime: "08:00"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	require.NoError(t, svc.DeleteShift(ctx, id))
	err = svc.DeleteShift(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
