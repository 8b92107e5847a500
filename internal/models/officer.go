package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
)

// OfficerStatus is an officer's duty status
type OfficerStatus string

const (
	OfficerActive  OfficerStatus = "active"
	OfficerOnLeave OfficerStatus = "on_leave"
	OfficerOffDuty OfficerStatus = "off_duty"
)

// Valid reports whether s is a known status
func (s OfficerStatus) Valid() bool {
	switch s {
	case OfficerActive, OfficerOnLeave, OfficerOffDuty:
		return true
	}
	return false
}

// Officer represents a police officer in the hierarchy
type Officer struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	Name         string            `json:"name" db:"name"`
	Rank         jurisdiction.Role `json:"rank" db:"rank"`
	Jurisdiction string            `json:"jurisdiction" db:"jurisdiction"`
	BadgeNumber  string            `json:"badge_number" db:"badge_number"`
	Phone        string            `json:"phone,omitempty" db:"phone"`
	Email        string            `json:"email,omitempty" db:"email"`
	Status       OfficerStatus     `json:"status" db:"status"`
	PasswordHash string            `json:"-" db:"password_hash"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// OfficerFilter narrows officer listings. Zero values match everything.
type OfficerFilter struct {
	Rank      jurisdiction.Role
	Districts []string
	Status    OfficerStatus
}
