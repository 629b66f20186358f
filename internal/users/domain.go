package users

import (
	"time"

	"github.com/acadtrack/acadtrack/internal/authz"
)

// User represents a profile entry in the directory.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      authz.Role `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Filter constrains directory listings.
type Filter struct {
	Role    *authz.Role
	Search  string
	Page    int
	PerPage int
}
