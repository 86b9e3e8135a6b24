package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

func TestOverlaps(t *testing.T) {
	c := model.MustClock
	tests := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"disjoint", "09:00", "10:00", "11:00", "12:00", false},
		{"touching end to start", "09:00", "10:00", "10:00", "11:00", false},
		{"touching start to end", "10:00", "11:00", "09:00", "10:00", false},
		{"partial", "09:30", "10:30", "10:00", "11:00", true},
		{"contained", "10:15", "10:45", "10:00", "11:00", true},
		{"containing", "09:00", "12:00", "10:00", "11:00", true},
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(c(tt.s1), c(tt.e1), c(tt.s2), c(tt.e2)))
			assert.Equal(t, tt.want, Overlaps(c(tt.s2), c(tt.e2), c(tt.s1), c(tt.e1)), "overlap must be symmetric")
		})
	}
}

func TestResolveScenario(t *testing.T) {
	candidates := clocks("09:00", "09:30", "10:00", "10:30", "11:00")
	booked := []Interval{{Start: model.MustClock("10:00"), End: model.MustClock("11:00")}}

	available, taken := Resolve(candidates, 60, booked)

	assert.Equal(t, clocks("09:00", "11:00"), available)
	assert.Equal(t, clocks("09:30", "10:00", "10:30"), taken)
}

func TestResolveIsIdempotent(t *testing.T) {
	candidates := clocks("08:00", "08:30", "09:00", "09:30", "10:00")
	booked := []Interval{
		{Start: model.MustClock("08:30"), End: model.MustClock("09:00")},
		{Start: model.MustClock("09:45"), End: model.MustClock("10:15")},
	}

	a1, b1 := Resolve(candidates, 30, booked)
	a2, b2 := Resolve(candidates, 30, booked)

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.Len(t, append(a1, b1...), len(candidates))
}

func TestResolveWithoutBookings(t *testing.T) {
	candidates := clocks("09:00", "09:30")
	available, taken := Resolve(candidates, 30, nil)
	assert.Equal(t, candidates, available)
	assert.Empty(t, taken)
}

func TestIntervalsEndFallback(t *testing.T) {
	end := model.MustClock("10:45")
	booked := []*model.BookedInterval{
		{Start: model.MustClock("10:00"), End: &end, ServiceMinutes: 60},
		{Start: model.MustClock("11:00"), ServiceMinutes: 90},
		{Start: model.MustClock("14:00")},
	}

	got := Intervals(booked, 30)

	assert.Equal(t, model.MustClock("10:45"), got[0].End, "stored end time wins")
	assert.Equal(t, model.MustClock("12:30"), got[1].End)
	assert.Equal(t, model.MustClock("14:30"), got[2].End)
}

func TestVetBusy(t *testing.T) {
	vetA, vetB := uuid.New(), uuid.New()
	booked := []Interval{
		{VetID: &vetA, Start: model.MustClock("10:00"), End: model.MustClock("11:00")},
	}

	assert.True(t, VetBusy(vetA, model.MustClock("10:30"), model.MustClock("11:30"), booked))
	assert.False(t, VetBusy(vetB, model.MustClock("10:30"), model.MustClock("11:30"), booked))
	assert.False(t, VetBusy(vetA, model.MustClock("11:00"), model.MustClock("12:00"), booked))

	unassigned := append(booked, Interval{Start: model.MustClock("13:00"), End: model.MustClock("14:00")})
	assert.True(t, VetBusy(vetB, model.MustClock("13:30"), model.MustClock("14:30"), unassigned),
		"a booking without a veterinarian blocks everyone")
}
