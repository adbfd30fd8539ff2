package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/shramba/internal/auth"
	"github.com/erazemk/shramba/internal/inventory"
	"github.com/erazemk/shramba/internal/model"
	webembed "github.com/erazemk/shramba/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(model.DateLayout)
		},
		"categoryLabel": func(category string) string {
			return model.CategoryCount{Category: category}.Label()
		},
	}
}

var pages = []string{
	"login.html",
	"register.html",
	"index.html",
	"add_item.html",
	"edit_item.html",
	"dashboard.html",
	"error.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	return parseTemplates(webembed.TemplatesFS())
}

func parseTemplates(tfs fs.FS) (*Templates, error) {
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given status code. The page is rendered
// into a buffer first so a template error still yields a clean 500.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title  string
	User   *auth.Claims
	Error  string
	Errors []string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Auth         *auth.Service
	Inventory    *inventory.Service
	Templates    *Templates
	SecureCookie bool
}

// renderError renders the error page. Internal details are logged, never shown.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.Templates.Render(w, status, "error.html", &struct {
		PageData
		Status  int
		Message string
	}{
		PageData: PageData{Title: http.StatusText(status), User: GetClaims(r.Context())},
		Status:   status,
		Message:  message,
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "path", r.URL.Path)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}
