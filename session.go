package authstate

import (
	"fmt"
	"time"
)

// Identity is the value object produced by successfully validating a session
// token. It is always a projection of the raw token, recomputed on demand,
// and never persisted separately.
type Identity struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     UserRole  `json:"role"`
	IssuedAt time.Time `json:"issued_at"`
	Expiry   time.Time `json:"expiry"`
}

// HasRole checks if the identity has a specific role
func (i *Identity) HasRole(role UserRole) bool {
	return i != nil && i.Role == role
}

// IsAtLeast checks if the identity's role is at least the minimum required role
func (i *Identity) IsAtLeast(minRole UserRole) bool {
	return i != nil && i.Role.IsAtLeast(minRole)
}

func (i Identity) String() string {
	return fmt.Sprintf(
		"user=%s email=%s role=%s iat=%s exp=%s",
		i.ID,
		i.Email,
		i.Role,
		i.IssuedAt.Format(time.RFC1123),
		i.Expiry.Format(time.RFC1123),
	)
}

// SessionState is the settled output of a session load: either an
// authenticated state carrying the raw token plus its decoded identity, or
// the logged-out zero state.
type SessionState struct {
	Token           string    `json:"token,omitempty"`
	User            *Identity `json:"user,omitempty"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IsLoading       bool      `json:"is_loading"`
}

// LoggedOut returns the settled logged-out state.
func LoggedOut() SessionState {
	return SessionState{}
}

// Authenticated builds a settled authenticated state.
func Authenticated(token string, user *Identity) SessionState {
	return SessionState{
		Token:           token,
		User:            user,
		IsAuthenticated: token != "" && user != nil,
	}
}

// HasValidAuth treats either resolver's positive result as sufficient proof
// of authentication, so one misbehaving storage path cannot lock a user out.
func HasValidAuth(states ...SessionState) bool {
	for _, s := range states {
		if s.IsAuthenticated {
			return true
		}
	}
	return false
}
