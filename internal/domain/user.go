package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case UserRoleUser, UserRoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown user role: %q", s)
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedOn    time.Time `json:"created_on"`
}

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserID uuid.UUID
	Role   UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == UserRoleAdmin
}
