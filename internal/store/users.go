package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/shramba/internal/common"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/model"
)

// CreateUser creates a new user. A taken username yields
// common.ErrDuplicateUsername.
func CreateUser(ctx context.Context, database *db.DB, username, passwordHash string) (*model.User, error) {
	var id int64
	err := database.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("creating user: %w", common.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, database, id)
}

// GetUser returns a user by ID, or nil if there is none.
func GetUser(ctx context.Context, database *db.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := database.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, or nil if there is none.
func GetUserByUsername(ctx context.Context, database *db.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := database.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}
