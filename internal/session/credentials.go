package session

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	canonicalEmail    = "user@mail.com"
	canonicalPassword = "user123456"
	canonicalUserID   = "1"
	canonicalName     = "User"
)

// Credentials is the single accepted email/password pair. The password is
// kept only as a bcrypt hash.
type Credentials struct {
	email string
	hash  []byte
}

// NewCredentials hashes password at bcrypt.MinCost; the hash guards the
// in-memory record, not a password database.
func NewCredentials(email, password string) (Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Credentials{}, fmt.Errorf("hashing password: %w", err)
	}
	return Credentials{email: email, hash: hash}, nil
}

// DefaultCredentials returns the canonical credential record.
func DefaultCredentials() Credentials {
	c, err := NewCredentials(canonicalEmail, canonicalPassword)
	if err != nil {
		panic(err)
	}
	return c
}

// Match reports whether email and password both match exactly.
func (c Credentials) Match(email, password string) bool {
	if email != c.email || len(c.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
}

// User returns the canonical user record for these credentials.
func (c Credentials) User() User {
	return User{ID: canonicalUserID, Email: c.email, Name: canonicalName}
}
