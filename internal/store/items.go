package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/shramba/internal/common"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/model"
)

const itemColumns = `id, user_id, name, quantity, category, expiration_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var item model.Item
	var expiration sql.NullString
	if err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &item.Category,
		&expiration, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return item, err
	}
	if expiration.Valid && expiration.String != "" {
		d, err := model.ParseDate(expiration.String)
		if err != nil {
			return item, err
		}
		item.ExpirationDate = &d
	}
	return item, nil
}

// dateArg converts an optional date to its stored form.
func dateArg(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(model.DateLayout)
}

// CreateItem stores a new item for item.UserID.
func CreateItem(ctx context.Context, database *db.DB, item model.Item) (*model.Item, error) {
	var id int64
	err := database.QueryRowContext(ctx,
		`INSERT INTO items (user_id, name, quantity, category, expiration_date)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		item.UserID, item.Name, item.Quantity, item.Category, dateArg(item.ExpirationDate),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, database, id)
}

// GetItem returns an item by ID regardless of owner, or nil if there is none.
func GetItem(ctx context.Context, database *db.DB, id int64) (*model.Item, error) {
	item, err := scanItem(database.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// ListItemsByUser returns a user's items by expiration date, earliest first.
// Items without a date come last; ties are ordered by ID.
func ListItemsByUser(ctx context.Context, database *db.DB, userID int64) ([]model.Item, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE user_id = ?
		 ORDER BY expiration_date IS NULL, expiration_date, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites all mutable fields of an item owned by item.UserID.
// It returns common.ErrNotFound when no such row exists.
func UpdateItem(ctx context.Context, database *db.DB, item model.Item) error {
	result, err := database.ExecContext(ctx,
		`UPDATE items SET name = ?, quantity = ?, category = ?, expiration_date = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		item.Name, item.Quantity, item.Category, dateArg(item.ExpirationDate), item.ID, item.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result, "updating item")
}

// DeleteItem permanently removes an item owned by userID.
// It returns common.ErrNotFound when no such row exists.
func DeleteItem(ctx context.Context, database *db.DB, id, userID int64) error {
	result, err := database.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result, "deleting item")
}

// CountItemsByCategory returns the number of items per category for a user,
// largest first, ties by category name with the uncategorized group last.
func CountItemsByCategory(ctx context.Context, database *db.DB, userID int64) ([]model.CategoryCount, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT category, COUNT(*) AS n FROM items
		 WHERE user_id = ?
		 GROUP BY category
		 ORDER BY n DESC, category = '', category`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting items by category: %w", err)
	}
	defer rows.Close()

	var counts []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func requireAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	return nil
}
