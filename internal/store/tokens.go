package store

import (
	"context"
	"time"

	"github.com/erazemk/inventaris/internal/db"
)

// TokenStore persists revoked token IDs in the revoked_tokens table.
type TokenStore struct {
	db  *db.DB
	now func() time.Time
}

// NewTokenStore returns a revocation store backed by database.
func NewTokenStore(database *db.DB) *TokenStore {
	return &TokenStore{db: database, now: time.Now}
}

// Revoke adds a token's JTI to the revocation list.
func (s *TokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`),
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return wrapErr("revoking token", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM revoked_tokens WHERE expires_at < ?`), s.now().UTC(),
	)

	return nil
}

// IsRevoked checks if a token's JTI has been revoked.
func (s *TokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind(`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`), jti,
	)
	if err != nil {
		return false, wrapErr("checking token revocation", err)
	}
	return count > 0, nil
}
