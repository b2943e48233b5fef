package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrValidation wraps malformed register or admin input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already in use")
	// ErrTokenInvalid means a supplied token cannot be validated or no longer maps to a user.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrForbidden indicates an authenticated caller lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
)

// Role identifies the privileges assigned to a user.
type Role string

const (
	// RoleUser represents a standard application user.
	RoleUser Role = "USER"
	// RoleAdmin represents an administrative user.
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalises raw input into a known role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// User models the authentication entity persisted in storage.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the user holds one of the given roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Sanitized returns a copy without the password hash.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}
