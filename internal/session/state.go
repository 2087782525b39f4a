// Package session implements the single-user authentication state machine
// and its persistence in a kv.Store.
package session

import (
	"errors"
	"fmt"
)

// Status is the authentication state.
type Status int

const (
	// StatusUnknown holds until the first CheckAuth completes.
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// State is a snapshot of the session. User is non-nil iff Status is
// StatusAuthenticated.
type State struct {
	Status  Status
	User    *User
	Loading bool
}

func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoUser             = errors.New("user not found")
)

// Keys under which the session is persisted.
const (
	UserKey          = "user_data"
	AuthenticatedKey = "is_authenticated"
)
