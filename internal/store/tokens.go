package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/shramba/internal/db"
)

// RevokeToken records a logged-out session ID until expiresAt, when the token
// would stop validating anyway. Revoking twice is a no-op.
func RevokeToken(ctx context.Context, database *db.DB, jti string, expiresAt time.Time) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Logout must not fail over housekeeping.
	_, _ = PruneRevokedTokens(ctx, database, time.Now())
	return nil
}

// PruneRevokedTokens drops revocations whose token expired before now and
// returns how many were removed.
func PruneRevokedTokens(ctx context.Context, database *db.DB, now time.Time) (int64, error) {
	result, err := database.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	return result.RowsAffected()
}

// IsTokenRevoked reports whether the session ID was revoked at logout.
func IsTokenRevoked(ctx context.Context, database *db.DB, jti string) (bool, error) {
	var revoked bool
	err := database.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
