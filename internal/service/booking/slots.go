package booking

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/model"
)

// GenerateSlots walks [start, end) in steps of step minutes and returns every
// start time t with t+duration <= end. A window shorter than the duration
// yields no slots.
func GenerateSlots(start, end model.ClockTime, duration, step int) ([]model.ClockTime, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("service duration must be positive, got %d", duration)
	}
	if step <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %d", step)
	}

	var slots []model.ClockTime
	for t := start; t.Add(duration) <= end; t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots, nil
}

// Candidates holds the slots for one date, pooled across veterinarians and
// per veterinarian.
type Candidates struct {
	Pooled []model.ClockTime
	ByVet  map[uuid.UUID][]model.ClockTime
}

// CandidateSlots unions the slots of every shift into one ascending,
// duplicate-free list and keeps each veterinarian's own set.
func CandidateSlots(shifts []*model.WorkShift, duration, step int) (*Candidates, error) {
	out := &Candidates{ByVet: make(map[uuid.UUID][]model.ClockTime, len(shifts))}
	seen := make(map[model.ClockTime]struct{})

	for _, shift := range shifts {
		slots, err := GenerateSlots(shift.StartTime, shift.EndTime, duration, step)
		if err != nil {
			return nil, err
		}
		out.ByVet[shift.VetID] = append(out.ByVet[shift.VetID], slots...)
		for _, t := range slots {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out.Pooled = append(out.Pooled, t)
		}
	}

	sort.Slice(out.Pooled, func(i, j int) bool { return out.Pooled[i] < out.Pooled[j] })
	return out, nil
}
