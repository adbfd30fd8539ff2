// Package web serves the HTML pages: registration, login, the item list and
// forms, and the category dashboard.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/shramba/internal/auth"
	"github.com/erazemk/shramba/internal/inventory"
	webembed "github.com/erazemk/shramba/web"
)

// NewRouter creates the page router with all routes registered.
func NewRouter(authService *auth.Service, inventoryService *inventory.Service, secureCookie bool) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Auth:         authService,
		Inventory:    inventoryService,
		Templates:    templates,
		SecureCookie: secureCookie,
	}
	return s.Routes(), nil
}

// Routes returns the chi router for s.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found.")
	})

	// Static assets.
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	r.Get("/login", s.LoginPage)
	r.Post("/login", s.LoginSubmit)
	r.Get("/register", s.RegisterPage)
	r.Post("/register", s.RegisterSubmit)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(s.RequireSession)

		r.Get("/", s.Index)
		r.Get("/add", s.AddItemPage)
		r.Post("/add", s.AddItemSubmit)
		r.Get("/edit/{id}", s.EditItemPage)
		r.Post("/edit/{id}", s.EditItemSubmit)
		r.Get("/delete/{id}", s.DeleteItem)
		r.Get("/logout", s.Logout)
		r.Get("/dashboard", s.Dashboard)
		r.Get("/dashboard/chart.png", s.DashboardChart)
	})

	return r
}
