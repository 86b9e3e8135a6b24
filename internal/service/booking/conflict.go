package booking

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// share any minute. Touching intervals do not overlap.
func Overlaps(s1, e1, s2, e2 model.ClockTime) bool {
	return s1 < e2 && s2 < e1
}

// Interval is an occupied stretch of a day. A nil VetID comes from a booking
// without an assigned veterinarian and blocks every veterinarian.
type Interval struct {
	VetID *uuid.UUID
	Start model.ClockTime
	End   model.ClockTime
}

// Intervals resolves the end of every booked interval. Rows without a stored
// end fall back to their service's duration, then to defaultMinutes.
func Intervals(booked []*model.BookedInterval, defaultMinutes int) []Interval {
	out := make([]Interval, 0, len(booked))
	for _, b := range booked {
		iv := Interval{VetID: b.VetID, Start: b.Start}
		switch {
		case b.End != nil:
			iv.End = *b.End
		case b.ServiceMinutes > 0:
			iv.End = b.Start.Add(b.ServiceMinutes)
		default:
			iv.End = b.Start.Add(defaultMinutes)
		}
		out = append(out, iv)
	}
	return out
}

// Resolve splits candidates into available and booked slots. A slot
// [t, t+duration) is booked when it overlaps any interval. Order is kept.
func Resolve(candidates []model.ClockTime, duration int, booked []Interval) (available, taken []model.ClockTime) {
	available = make([]model.ClockTime, 0, len(candidates))
	taken = make([]model.ClockTime, 0)

	for _, t := range candidates {
		if overlapsAny(t, t.Add(duration), booked) {
			taken = append(taken, t)
		} else {
			available = append(available, t)
		}
	}
	return available, taken
}

// VetBusy reports whether vetID holds a booking overlapping [start, end).
func VetBusy(vetID uuid.UUID, start, end model.ClockTime, booked []Interval) bool {
	for _, iv := range booked {
		if iv.VetID != nil && *iv.VetID != vetID {
			continue
		}
		if Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}

func overlapsAny(start, end model.ClockTime, booked []Interval) bool {
	for _, iv := range booked {
		if Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}
