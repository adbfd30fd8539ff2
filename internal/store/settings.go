package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/shramba/internal/db"
)

const sessionSecretKey = "session_secret"

// GetSessionSecret returns the stored session signing secret, creating a
// random 32-byte one on first use.
func GetSessionSecret(ctx context.Context, database *db.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return ensureSetting(ctx, database, sessionSecretKey, hex.EncodeToString(buf))
}

// ensureSetting stores value under key unless the key is already set, and
// returns whichever value the table holds afterwards. Concurrent callers all
// get the first value written.
func ensureSetting(ctx context.Context, database *db.DB, key, value string) (string, error) {
	if _, err := database.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, value,
	); err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	var stored string
	if err := database.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&stored); err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return stored, nil
}
