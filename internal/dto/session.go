package dto

import (
	"time"

	"github.com/Additional-Code/frostline/internal/entity"
)

// SessionResponse describes an open console session.
type SessionResponse struct {
	ID         string    `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	Name       string    `json:"name"`
	Role       int64     `json:"role"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// LoginResponse is returned when a session starts.
type LoginResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

// NewSession maps an open session of employee.
func NewSession(id string, employee entity.Employee, issuedAt, expiresAt time.Time) SessionResponse {
	name := employee.Name
	if employee.Surname != "" {
		name += " " + employee.Surname
	}
	return SessionResponse{
		ID:         id,
		EmployeeID: employee.ID,
		Name:       name,
		Role:       employee.Role,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	}
}
