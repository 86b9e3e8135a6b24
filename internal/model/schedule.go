package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkShift is one veterinarian's working window on one date.
type WorkShift struct {
	ID        uuid.UUID `json:"work_id" db:"work_id"`
	VetID     uuid.UUID `json:"vet_id" db:"vet_id"`
	VetName   string    `json:"vet_name,omitempty" db:"vet_name"`
	Date      Date      `json:"work_day" db:"work_day"`
	StartTime ClockTime `json:"start_time" db:"start_time"`
	EndTime   ClockTime `json:"end_time" db:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Covers reports whether [start, end) fits inside the shift.
func (s *WorkShift) Covers(start, end ClockTime) bool {
	return start >= s.StartTime && end <= s.EndTime
}

type AddShiftsRequest struct {
	VetID     uuid.UUID `json:"vet_id"`
	Dates     []string  `json:"dates" binding:"required,min=1,dive,ymd"`
	StartTime string    `json:"start_time" binding:"required,hhmm"`
	EndTime   string    `json:"end_time" binding:"required,hhmm"`
}

type UpdateShiftRequest struct {
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

// AddShiftsResult reports which dates were inserted and which were skipped
// because the veterinarian already works that day.
type AddShiftsResult struct {
	Created []*WorkShift `json:"created"`
	Skipped []Date       `json:"skipped"`
}
