package model

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer     Role = "customer"
	RoleAdmin        Role = "admin"
	RoleVeterinarian Role = "veterinarian"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleVeterinarian:
		return true
	}
	return false
}

// User is an account of any role. A veterinarian's vet_id is their user id.
type User struct {
	Base
	Email         string `json:"email" db:"email"`
	Name          string `json:"name" db:"name"`
	Phone         string `json:"phone" db:"phone"`
	PasswordHash  string `json:"-" db:"password_hash"`
	Role          Role   `json:"role" db:"role"`
	EmailVerified bool   `json:"email_verified" db:"email_verified"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (i Identity) IsStaff() bool {
	return i.Role == RoleAdmin || i.Role == RoleVeterinarian
}

// UpdateProfileRequest is a caller editing their own contact details.
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// UpdateCustomerRequest is an admin correcting a customer's contact details.
type UpdateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}
