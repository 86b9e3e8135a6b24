package model

import (
	"time"

	"github.com/google/uuid"
)

// Medication is a stocked item. StockQuantity never drops below zero.
type Medication struct {
	Base
	Name          string  `json:"name" db:"name"`
	StockQuantity int     `json:"stock_quantity" db:"stock_quantity"`
	UnitPrice     float64 `json:"unit_price" db:"unit_price"`
	PackageSize   string  `json:"package_size" db:"package_size"`
}

type MedicationRequest struct {
	Name          string  `json:"name" binding:"required"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
	UnitPrice     float64 `json:"unit_price" binding:"gte=0"`
	PackageSize   string  `json:"package_size"`
}

// DispensingEntry records medication issued against a treatment. Creating
// one removes Quantity from stock and deleting it puts the quantity back.
type DispensingEntry struct {
	ID           uuid.UUID `json:"dispens_id" db:"dispens_id"`
	TreatmentID  uuid.UUID `json:"treatment_id" db:"treatment_id"`
	MedicationID uuid.UUID `json:"medication_id" db:"medication_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Date         Date      `json:"date" db:"dispens_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DispensedLine is a dispensing entry joined with its medication.
type DispensedLine struct {
	DispensingEntry
	MedicationName string  `json:"medication_name" db:"medication_name"`
	UnitPrice      float64 `json:"unit_price" db:"unit_price"`
}

// Total is the billed amount for the line.
func (l *DispensedLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type DispenseItem struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Quantity     int       `json:"quantity"`
}

type DispenseRequest struct {
	TreatmentID uuid.UUID      `json:"treatment_id" binding:"required"`
	Medications []DispenseItem `json:"medications"`
}
