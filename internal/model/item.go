package model

import (
	"fmt"
	"time"
)

// DateLayout is the format of expiration dates in forms and storage.
const DateLayout = "2006-01-02"

// ExpiringWindow is how many days ahead of today an expiration date counts as
// expiring soon (inclusive).
const ExpiringWindow = 3

// UncategorizedLabel is shown for items with an empty category.
const UncategorizedLabel = "Uncategorized"

// Item is a tracked food entry owned by one user.
type Item struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	Category       string     `json:"category,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ExpiringSoon reports whether the item has an expiration date on or before
// today + ExpiringWindow days. Already expired items count as expiring.
func (i Item) ExpiringSoon(today time.Time) bool {
	if i.ExpirationDate == nil {
		return false
	}
	soon := Day(today).AddDate(0, 0, ExpiringWindow)
	return !Day(*i.ExpirationDate).After(soon)
}

// Expired reports whether the expiration date is strictly before today.
func (i Item) Expired(today time.Time) bool {
	if i.ExpirationDate == nil {
		return false
	}
	return Day(*i.ExpirationDate).Before(Day(today))
}

// ExpirationString formats the expiration date for forms, or "" if unset.
func (i Item) ExpirationString() string {
	if i.ExpirationDate == nil {
		return ""
	}
	return i.ExpirationDate.Format(DateLayout)
}

// ItemView is an item annotated with its derived expiration status.
type ItemView struct {
	Item
	ExpiringSoon bool
	Expired      bool
}

// NewItemView annotates item against today.
func NewItemView(item Item, today time.Time) ItemView {
	return ItemView{
		Item:         item,
		ExpiringSoon: item.ExpiringSoon(today),
		Expired:      item.Expired(today),
	}
}

// CategoryCount is the number of a user's items in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Label returns the display name of the category.
func (c CategoryCount) Label() string {
	if c.Category == "" {
		return UncategorizedLabel
	}
	return c.Category
}

// Day truncates t to midnight UTC of its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
