package model

import (
	"github.com/google/uuid"
)

// ServiceDefinition is a bookable clinic service.
type ServiceDefinition struct {
	Base
	Name     string  `json:"name" db:"name"`
	Duration int     `json:"duration" db:"duration_minutes"` // in minutes
	Price    float64 `json:"price" db:"price"`
}

type ServiceRequest struct {
	Name     string  `json:"name" binding:"required"`
	Duration int     `json:"duration" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"gte=0"`
}

type PetType struct {
	ID   uuid.UUID `json:"pet_type_id" db:"pet_type_id"`
	Name string    `json:"name" db:"name"`
}

type PetTypeRequest struct {
	Name string `json:"name" binding:"required"`
}
