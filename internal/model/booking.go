package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusFailed     BookingStatus = "failed"
)

// Valid reports whether s is one of the fixed booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusInProgress, BookingStatusCompleted, BookingStatusFailed:
		return true
	}
	return false
}

// Active statuses hold their slot and participate in conflict checks.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusInProgress
}

// ActiveBookingStatuses lists the statuses that occupy a slot.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusInProgress}

type CustomerType string

const (
	CustomerTypeBooking CustomerType = "booking"
	CustomerTypeWalkIn  CustomerType = "walk_in"
)

// Booking is a reservation of one veterinarian for one service on a date.
// EndTime is computed from the service duration when the booking is created
// and is never recomputed afterwards.
type Booking struct {
	ID           uuid.UUID     `json:"booking_id" db:"booking_id"`
	PetID        uuid.UUID     `json:"pet_id" db:"pet_id"`
	CustomerID   uuid.UUID     `json:"cus_id" db:"cus_id"`
	VetID        *uuid.UUID    `json:"vet_id,omitempty" db:"vet_id"`
	ServiceID    uuid.UUID     `json:"service_id" db:"service_id"`
	Date         Date          `json:"date" db:"booking_date"`
	StartTime    ClockTime     `json:"time" db:"time_booking"`
	EndTime      *ClockTime    `json:"end_time,omitempty" db:"end_time"`
	Status       BookingStatus `json:"status" db:"status"`
	CustomerType CustomerType  `json:"customer_type" db:"customer_type"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// BookedInterval is the projection of an active booking used for conflict
// checks. ServiceMinutes backs rows whose end time was never stored.
type BookedInterval struct {
	BookingID      uuid.UUID  `db:"booking_id"`
	VetID          *uuid.UUID `db:"vet_id"`
	Start          ClockTime  `db:"time_booking"`
	End            *ClockTime `db:"end_time"`
	ServiceMinutes int        `db:"service_minutes"`
}

type CreateBookingRequest struct {
	PetID        uuid.UUID    `json:"pet_id" binding:"required"`
	CustomerID   uuid.UUID    `json:"cus_id"`
	ServiceID    uuid.UUID    `json:"service_id" binding:"required"`
	Date         string       `json:"date" binding:"required,ymd"`
	Time         string       `json:"time" binding:"required,hhmm"`
	CustomerType CustomerType `json:"customer_type" binding:"omitempty,oneof=booking walk_in"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}

// SlotAvailability is the partition of a date's candidate slots.
type SlotAvailability struct {
	Date                   Date        `json:"date"`
	ServiceID              uuid.UUID   `json:"service_id"`
	ServiceDurationMinutes int         `json:"serviceDurationMinutes"`
	AvailableSlots         []ClockTime `json:"availableSlots"`
	BookedSlots            []ClockTime `json:"bookedSlots"`
	AllSlots               []ClockTime `json:"allSlots"`
}
