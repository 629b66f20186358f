package auth

import (
	"time"

	"github.com/acadtrack/acadtrack/internal/authz"
)

// User represents an authenticated user account with its profile fields.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         authz.Role
	AvatarURL    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
