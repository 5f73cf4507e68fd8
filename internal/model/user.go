package model

import (
	"fmt"
	"time"
)

// User represents a person who can log in with a PIN.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	PINHash   string     `json:"-"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// PINLength is the exact number of digits in a login PIN.
const PINLength = 4

// ValidatePIN checks that a PIN is exactly PINLength ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return fmt.Errorf("PIN must be exactly %d digits", PINLength)
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return fmt.Errorf("PIN must be exactly %d digits", PINLength)
		}
	}
	return nil
}

// UserRef is the compact user representation embedded in other resources.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
