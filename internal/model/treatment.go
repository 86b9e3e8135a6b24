package model

import (
	"time"

	"github.com/google/uuid"
)

type PayStatus string

const (
	PayStatusUnpaid PayStatus = "unpaid"
	PayStatusPaid   PayStatus = "paid"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// TreatmentRecord is the clinical record for a booking. There is at most one
// per booking.
type TreatmentRecord struct {
	ID            uuid.UUID      `json:"treatment_id" db:"treatment_id"`
	BookingID     uuid.UUID      `json:"booking_id" db:"booking_id"`
	VetID         uuid.UUID      `json:"vet_id" db:"vet_id"`
	WeightKg      float64        `json:"weight" db:"weight_kg"`
	Details       string         `json:"treatment_details" db:"details"`
	TreatmentDate Date           `json:"treatment_date" db:"treatment_date"`
	PayStatus     PayStatus      `json:"pay_status" db:"pay_status"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateTreatmentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	WeightKg  float64   `json:"weight" binding:"required"`
	Details   string    `json:"treatment_details"`
}

type UpdateTreatmentRequest struct {
	WeightKg      float64        `json:"weight" binding:"required"`
	Details       string         `json:"treatment_details"`
	PayStatus     *PayStatus     `json:"pay_status" binding:"omitempty,oneof=unpaid paid"`
	PaymentMethod *PaymentMethod `json:"payment_method" binding:"omitempty,oneof=cash transfer card"`
}

type PaymentRequest struct {
	Method PaymentMethod `json:"payment_method" binding:"required,oneof=cash transfer card"`
}

// Invoice totals a treatment: the booked service plus every dispensed line.
type Invoice struct {
	TreatmentID  uuid.UUID        `json:"treatment_id"`
	BookingID    uuid.UUID        `json:"booking_id"`
	ServiceName  string           `json:"service_name"`
	ServicePrice float64          `json:"service_price"`
	Lines        []*DispensedLine `json:"medications"`
	Medications  float64          `json:"medications_total"`
	Total        float64          `json:"total"`
	PayStatus    PayStatus        `json:"pay_status"`
}

// ReportPeriod is the bucket size of a treatment report.
type ReportPeriod string

const (
	ReportWeek  ReportPeriod = "week"
	ReportMonth ReportPeriod = "month"
	ReportYear  ReportPeriod = "year"
)

func (p ReportPeriod) Valid() bool {
	switch p {
	case ReportWeek, ReportMonth, ReportYear:
		return true
	}
	return false
}

// DateCount is the number of treatments recorded on one day.
type DateCount struct {
	Date  Date `db:"treatment_date"`
	Total int  `db:"total"`
}

// TreatmentReport counts treatments per bucket. Labels and Data are parallel
// and ascending. Buckets without treatments are omitted.
type TreatmentReport struct {
	Type   ReportPeriod `json:"type"`
	Labels []string     `json:"labels"`
	Data   []int        `json:"data"`
}
