package model

import (
	"time"

	"github.com/google/uuid"
)

type Pet struct {
	ID         uuid.UUID `json:"pet_id" db:"pet_id"`
	CustomerID uuid.UUID `json:"cus_id" db:"cus_id"`
	PetTypeID  uuid.UUID `json:"pet_type_id" db:"pet_type_id"`
	Name       string    `json:"name" db:"name"`
	Gender     string    `json:"gender" db:"gender"`
	BirthDate  *Date     `json:"birth_date,omitempty" db:"birth_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type PetRequest struct {
	PetTypeID uuid.UUID `json:"pet_type_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Gender    string    `json:"gender" binding:"omitempty,oneof=male female unknown"`
	BirthDate string    `json:"birth_date" binding:"omitempty,ymd"`
}
