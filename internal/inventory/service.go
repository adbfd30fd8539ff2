// Package inventory implements the food item operations. Every operation takes
// the acting user's ID explicitly and only ever exposes or mutates that user's
// items.
package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/common"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
	"github.com/erazemk/shramba/internal/validation"
)

// ItemForm is the raw add/edit item input.
type ItemForm struct {
	Name           string `form:"name" validate:"required,max=100"`
	Quantity       string `form:"quantity" validate:"required,number"`
	Category       string `form:"category" validate:"max=50"`
	ExpirationDate string `form:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
}

// FormFields lists the form keys an ItemForm is decoded from.
var FormFields = []string{"name", "quantity", "category", "expiration_date"}

// FormFromItem fills a form with an item's current values.
func FormFromItem(item *model.Item) ItemForm {
	return ItemForm{
		Name:           item.Name,
		Quantity:       strconv.Itoa(item.Quantity),
		Category:       item.Category,
		ExpirationDate: item.ExpirationString(),
	}
}

// parse validates the form and converts it into item fields.
func (f ItemForm) parse() (model.Item, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Quantity = strings.TrimSpace(f.Quantity)
	f.Category = strings.TrimSpace(f.Category)
	f.ExpirationDate = strings.TrimSpace(f.ExpirationDate)

	if err := validation.Struct(f); err != nil {
		return model.Item{}, err
	}

	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		// Digits only, so this is an overflow.
		return model.Item{}, common.NewValidationError("quantity", "quantity is too large")
	}

	item := model.Item{Name: f.Name, Quantity: qty, Category: f.Category}
	if f.ExpirationDate != "" {
		d, err := model.ParseDate(f.ExpirationDate)
		if err != nil {
			return model.Item{}, common.NewValidationError("expiration_date", "expiration date must be a date in YYYY-MM-DD format")
		}
		item.ExpirationDate = &d
	}
	return item, nil
}

// Service implements item CRUD and the dashboard aggregation.
type Service struct {
	DB  *db.DB
	Now func() time.Time
}

// NewService returns a Service using the wall clock.
func NewService(database *db.DB) *Service {
	return &Service{DB: database, Now: time.Now}
}

// Today returns the current UTC date.
func (s *Service) Today() time.Time {
	return model.Day(s.Now())
}

// ListItems returns the user's items by expiration date (undated last), each
// annotated with its expiration status.
func (s *Service) ListItems(ctx context.Context, userID int64) ([]model.ItemView, error) {
	items, err := store.ListItemsByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	views := make([]model.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, model.NewItemView(item, today))
	}
	return views, nil
}

// GetItem returns one of the user's items.
func (s *Service) GetItem(ctx context.Context, userID, itemID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, common.ErrNotFound)
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("item %d: %w", itemID, common.ErrForbidden)
	}
	return item, nil
}

// AddItem validates the form and stores a new item owned by userID.
func (s *Service) AddItem(ctx context.Context, userID int64, form ItemForm) (*model.Item, error) {
	item, err := form.parse()
	if err != nil {
		return nil, err
	}
	item.UserID = userID
	return store.CreateItem(ctx, s.DB, item)
}

// EditItem overwrites every mutable field of one of the user's items.
// Concurrent edits are last-write-wins.
func (s *Service) EditItem(ctx context.Context, userID, itemID int64, form ItemForm) (*model.Item, error) {
	current, err := s.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item, err := form.parse()
	if err != nil {
		return nil, err
	}
	item.ID = current.ID
	item.UserID = current.UserID

	if err := store.UpdateItem(ctx, s.DB, item); err != nil {
		return nil, err
	}
	return store.GetItem(ctx, s.DB, item.ID)
}

// DeleteItem permanently removes one of the user's items. Items owned by
// someone else are left untouched and reported as common.ErrForbidden.
func (s *Service) DeleteItem(ctx context.Context, userID, itemID int64) error {
	if _, err := s.GetItem(ctx, userID, itemID); err != nil {
		return err
	}
	return store.DeleteItem(ctx, s.DB, itemID, userID)
}

// CategoryCounts returns the number of the user's items per category, largest
// first and then by name. Uncategorized items have the empty category and sort
// after named categories with the same count.
func (s *Service) CategoryCounts(ctx context.Context, userID int64) ([]model.CategoryCount, error) {
	return store.CountItemsByCategory(ctx, s.DB, userID)
}
