package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

func clocks(values ...string) []model.ClockTime {
	out := make([]model.ClockTime, 0, len(values))
	for _, v := range values {
		out = append(out, model.MustClock(v))
	}
	return out
}

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		duration int
		step     int
		want     []model.ClockTime
	}{
		{
			name: "hour service in three hour shift", start: "09:00", end: "12:00", duration: 60, step: 30,
			want: clocks("09:00", "09:30", "10:00", "10:30", "11:00"),
		},
		{
			name: "service equal to shift", start: "09:00", end: "10:00", duration: 60, step: 30,
			want: clocks("09:00"),
		},
		{
			name: "shift shorter than service", start: "09:00", end: "09:45", duration: 60, step: 30,
			want: nil,
		},
		{
			name: "step larger than duration", start: "08:00", end: "10:00", duration: 15, step: 45,
			want: clocks("08:00", "08:45", "09:30"),
		},
		{
			name: "runs to midnight", start: "23:00", end: "24:00", duration: 30, step: 30,
			want: clocks("23:00", "23:30"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateSlots(model.MustClock(tt.start), model.MustClock(tt.end), tt.duration, tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSlotsRejectsNonPositiveInputs(t *testing.T) {
	_, err := GenerateSlots(model.MustClock("09:00"), model.MustClock("12:00"), 0, 30)
	assert.Error(t, err)

	_, err = GenerateSlots(model.MustClock("09:00"), model.MustClock("12:00"), 30, 0)
	assert.Error(t, err)
}

func TestSlotsStayInsideShift(t *testing.T) {
	start, end := model.MustClock("08:15"), model.MustClock("17:40")
	for _, duration := range []int{10, 25, 30, 45, 60, 90, 120} {
		for _, step := range []int{5, 15, 30, 60} {
			slots, err := GenerateSlots(start, end, duration, step)
			require.NoError(t, err)
			for _, s := range slots {
				assert.GreaterOrEqual(t, int(s), int(start))
				assert.LessOrEqual(t, int(s.Add(duration)), int(end))
			}
		}
	}
}

func TestCandidateSlotsPoolsAndDeduplicates(t *testing.T) {
	vetA, vetB := uuid.New(), uuid.New()
	shifts := []*model.WorkShift{
		{VetID: vetB, StartTime: model.MustClock("10:00"), EndTime: model.MustClock("12:00")},
		{VetID: vetA, StartTime: model.MustClock("09:00"), EndTime: model.MustClock("11:00")},
	}

	got, err := CandidateSlots(shifts, 60, 30)
	require.NoError(t, err)

	assert.Equal(t, clocks("09:00", "09:30", "10:00", "10:30", "11:00"), got.Pooled)
	assert.Equal(t, clocks("09:00", "09:30", "10:00"), got.ByVet[vetA])
	assert.Equal(t, clocks("10:00", "10:30", "11:00"), got.ByVet[vetB])
}

func TestCandidateSlotsWithoutShifts(t *testing.T) {
	got, err := CandidateSlots(nil, 30, 30)
	require.NoError(t, err)
	assert.Empty(t, got.Pooled)
}
