package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login, whether the
// username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Built-in admin credential pair.
const (
	DefaultUsername = "admin"
	defaultPassword = "password123"
)

// CredentialVerifier checks a username/password pair and returns the
// identity to embed in the token.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

// HashedCredentials accepts exactly one username with a bcrypt password hash.
type HashedCredentials struct {
	username string
	hash     []byte
}

// NewHashedCredentials returns a verifier for username and a bcrypt hash.
func NewHashedCredentials(username, passwordHash string) (*HashedCredentials, error) {
	if username == "" {
		return nil, errors.New("username required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &HashedCredentials{username: username, hash: []byte(passwordHash)}, nil
}

// FixedCredentials returns a verifier for the built-in admin credential pair.
func FixedCredentials() (*HashedCredentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &HashedCredentials{username: DefaultUsername, hash: hash}, nil
}

// Verify implements CredentialVerifier. The password hash is always compared,
// even for an unknown username.
func (c *HashedCredentials) Verify(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !userOK || passErr != nil {
		return "", ErrInvalidCredentials
	}
	return c.username, nil
}
