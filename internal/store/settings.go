package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/inventaris/internal/db"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the persisted token signing key, creating a random
// 32-byte one on first use.
func GetJWTSecret(ctx context.Context, database *db.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return settingOrDefault(ctx, database, jwtSecretKey, hex.EncodeToString(buf))
}

// settingOrDefault stores value under key unless the key is already set and
// returns whichever value is stored. Concurrent first starts agree on one
// value because the insert never overwrites.
func settingOrDefault(ctx context.Context, database *db.DB, key, value string) (string, error) {
	if _, err := database.ExecContext(ctx, database.Rebind(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`),
		key, value,
	); err != nil {
		return "", wrapErr("storing setting "+key, err)
	}

	var stored string
	if err := database.GetContext(ctx, &stored,
		database.Rebind(`SELECT value FROM settings WHERE key = ?`), key,
	); err != nil {
		return "", wrapErr("reading setting "+key, err)
	}
	return stored, nil
}
