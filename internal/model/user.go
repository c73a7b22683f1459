package model

import "time"

// Role is a user's granted role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ImpersonationMode is the role an account is currently acting as.
// Administrators may switch to USER to see the system as an ordinary user.
type ImpersonationMode string

const (
	ModeUser  ImpersonationMode = "USER"
	ModeAdmin ImpersonationMode = "ADMIN"
)

// Valid reports whether m is a known mode.
func (m ImpersonationMode) Valid() bool {
	return m == ModeUser || m == ModeAdmin
}

// User is an authenticated account as resolved from a session.
type User struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Role              Role              `json:"role"`
	ImpersonationMode ImpersonationMode `json:"current_impersonation_mode"`
	PasswordHash      string            `json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
}

// DisplayName returns the best human-readable label for the user.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown"
}

// Session is a server-side login session. Only the hash of the bearer token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
