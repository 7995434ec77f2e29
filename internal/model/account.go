package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RolePartner:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"` // nil for accounts created without one
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the caller identity threaded into every service call.
// It is resolved from the session once per request, never read from
// ambient state.
type Identity struct {
	AccountID int64
	Role      Role
}
