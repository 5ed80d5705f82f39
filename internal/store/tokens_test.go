package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/inventaris/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	tokens := NewTokenStore(db.NewTestDB(t))
	ctx := context.Background()

	// Token should not be revoked initially.
	revoked, err := tokens.IsRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := tokens.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err = tokens.IsRevoked(ctx, "test-jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	// Different JTI should not be revoked.
	revoked, err = tokens.IsRevoked(ctx, "test-jti-2")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	tokens := NewTokenStore(db.NewTestDB(t))
	ctx := context.Background()

	if err := tokens.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if err := tokens.Revoke(ctx, "test-jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestRevokePurgesExpired(t *testing.T) {
	tokens := NewTokenStore(db.NewTestDB(t))
	ctx := context.Background()

	tokens.Revoke(ctx, "old", time.Now().Add(-time.Hour))
	tokens.Revoke(ctx, "new", time.Now().Add(time.Hour))

	revoked, _ := tokens.IsRevoked(ctx, "old")
	if revoked {
		t.Error("expected expired revocation to be purged")
	}
}
