package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/shramba/internal/common"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
)

type itemFormPage struct {
	PageData
	ItemID int64
	Form   inventory.ItemForm
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := s.Inventory.ListItems(r.Context(), claims.UserID)
	if err != nil {
		s.internalError(w, r, "failed to list items", err)
		return
	}

	expiring := 0
	for _, item := range items {
		if item.ExpiringSoon {
			expiring++
		}
	}

	s.Templates.Render(w, http.StatusOK, "index.html", &struct {
		PageData
		Items         []model.ItemView
		ExpiringCount int
	}{
		PageData:      PageData{Title: "My food", User: claims},
		Items:         items,
		ExpiringCount: expiring,
	})
}

// AddItemPage handles GET /add.
func (s *Server) AddItemPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "add_item.html", &itemFormPage{
		PageData: PageData{Title: "Add item", User: GetClaims(r.Context())},
		Form:     inventory.ItemForm{Quantity: "1"},
	})
}

// AddItemSubmit handles POST /add.
func (s *Server) AddItemSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	form, err := decodeItemForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}

	item, err := s.Inventory.AddItem(r.Context(), claims.UserID, form)
	if err != nil {
		page := &itemFormPage{PageData: PageData{Title: "Add item", User: claims}, Form: form}
		s.itemFormError(w, r, "add_item.html", page, err)
		return
	}

	slog.Info("item added", "user", claims.Username, "item", item.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditItemPage handles GET /edit/{id}.
func (s *Server) EditItemPage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	item, err := s.Inventory.GetItem(r.Context(), claims.UserID, id)
	if err != nil {
		s.itemError(w, r, "failed to get item", err)
		return
	}

	s.Templates.Render(w, http.StatusOK, "edit_item.html", &itemFormPage{
		PageData: PageData{Title: "Edit " + item.Name, User: claims},
		ItemID:   item.ID,
		Form:     inventory.FormFromItem(item),
	})
}

// EditItemSubmit handles POST /edit/{id}.
func (s *Server) EditItemSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	// Absent and foreign items are answered before the body is looked at.
	if _, err := s.Inventory.GetItem(r.Context(), claims.UserID, id); err != nil {
		s.itemError(w, r, "failed to get item", err)
		return
	}

	form, err := decodeItemForm(w, r)
	if err != nil {
		s.badForm(w, r, err)
		return
	}

	if _, err := s.Inventory.EditItem(r.Context(), claims.UserID, id, form); err != nil {
		page := &itemFormPage{PageData: PageData{Title: "Edit item", User: claims}, ItemID: id, Form: form}
		s.itemFormError(w, r, "edit_item.html", page, err)
		return
	}

	slog.Info("item updated", "user", claims.Username, "item", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeleteItem handles GET /delete/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, ok := s.itemID(w, r)
	if !ok {
		return
	}

	if err := s.Inventory.DeleteItem(r.Context(), claims.UserID, id); err != nil {
		s.itemError(w, r, "failed to delete item", err)
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func decodeItemForm(w http.ResponseWriter, r *http.Request) (inventory.ItemForm, error) {
	values, err := decodeForm(w, r, inventory.FormFields...)
	if err != nil {
		return inventory.ItemForm{}, err
	}
	return inventory.ItemForm{
		Name:           values["name"],
		Quantity:       values["quantity"],
		Category:       values["category"],
		ExpirationDate: values["expiration_date"],
	}, nil
}

// itemID parses the {id} URL parameter. Unparseable IDs are answered like
// missing items.
func (s *Server) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.renderError(w, r, http.StatusNotFound, "Item not found.")
		return 0, false
	}
	return id, true
}

// itemError answers a failed item lookup. Items owned by another user are
// reported exactly like missing ones.
func (s *Server) itemError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrForbidden):
		if errors.Is(err, common.ErrForbidden) {
			slog.Warn("foreign item access", "user", GetClaims(r.Context()).Username, "error", err)
		}
		s.renderError(w, r, http.StatusNotFound, "Item not found.")
	default:
		s.internalError(w, r, msg, err)
	}
}

// itemFormError re-renders the form on validation errors.
func (s *Server) itemFormError(w http.ResponseWriter, r *http.Request, name string, page *itemFormPage, err error) {
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		page.Errors = verr.Messages()
		s.Templates.Render(w, http.StatusUnprocessableEntity, name, page)
		return
	}
	s.itemError(w, r, "failed to save item", err)
}
