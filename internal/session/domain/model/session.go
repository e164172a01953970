package model

import (
	"errors"
	"strings"
	"time"
)

// Role is the authenticated user's role as carried in the token's role claim.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Session errors
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrUnknownRole    = errors.New("token carries an unknown role")
)

// ParseRole normalizes a raw role claim to uppercase and validates it against
// the two known roles. Any other value invalidates the session entirely rather
// than passing through as a third role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Session is the client's in-memory representation of the authenticated user.
// A session is either fully absent (nil) or fully populated: role and expiry
// always originate from decoding the same token.
type Session struct {
	Token     string    `json:"-"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
}

// IsExpired reports whether the session's token expiry has passed at the given
// instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
