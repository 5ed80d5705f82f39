package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned when a token is missing, malformed, expired,
// signed with another key, or revoked.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified claim carried by a token.
type Identity struct {
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// Token is a signed bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// RevocationStore records token IDs that must no longer be accepted.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Gate issues and verifies bearer tokens. Without a RevocationStore
// verification is stateless: any correctly signed, unexpired token passes.
type Gate struct {
	secret      string
	creds       CredentialVerifier
	revocations RevocationStore
	now         func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithRevocations enables server-side logout.
func WithRevocations(r RevocationStore) GateOption {
	return func(g *Gate) { g.revocations = r }
}

// WithClock overrides the clock used for issuing and expiring tokens.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate returns a Gate signing tokens with secret.
func NewGate(secret string, creds CredentialVerifier, opts ...GateOption) *Gate {
	g := &Gate{secret: secret, creds: creds, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login checks the credentials and issues a token.
func (g *Gate) Login(ctx context.Context, username, password string) (*Token, error) {
	identity, err := g.creds.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	signed, claims, err := GenerateToken(g.secret, identity, g.now())
	if err != nil {
		return nil, err
	}
	return &Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify validates a token and returns its identity.
func (g *Gate) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	claims, err := ValidateToken(g.secret, token, g.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if g.revocations != nil && claims.ID != "" {
		revoked, err := g.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("checking token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}

	return &Identity{
		Username:  claims.Username,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token when a RevocationStore is configured. Otherwise
// it only verifies the token; the client discards it.
func (g *Gate) Logout(ctx context.Context, token string) error {
	identity, err := g.Verify(ctx, token)
	if err != nil {
		return err
	}
	if g.revocations == nil {
		return nil
	}
	if err := g.revocations.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// Stateless reports whether tokens are verified without server-side state.
func (g *Gate) Stateless() bool {
	return g.revocations == nil
}
