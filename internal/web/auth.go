package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/shramba/internal/auth"
	"github.com/erazemk/shramba/internal/common"
)

type credentialsPage struct {
	PageData
	Username string
}

var credentialFields = []string{"username", "password"}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "login.html", &credentialsPage{PageData: PageData{Title: "Log in"}})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	values, err := decodeForm(w, r, credentialFields...)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	creds := auth.Credentials{Username: values["username"], Password: values["password"]}

	page := &credentialsPage{PageData: PageData{Title: "Log in"}, Username: creds.Username}

	session, err := s.Auth.Login(r.Context(), creds)
	var verr *common.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		page.Errors = verr.Messages()
		s.Templates.Render(w, http.StatusUnprocessableEntity, "login.html", page)
		return
	case errors.Is(err, common.ErrInvalidCredentials):
		slog.Warn("failed login", "username", creds.Username)
		page.Error = "Invalid username or password."
		s.Templates.Render(w, http.StatusUnauthorized, "login.html", page)
		return
	default:
		s.internalError(w, r, "failed to log in", err)
		return
	}

	s.setSessionCookie(w, session)
	slog.Info("user logged in", "user", session.User.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "register.html", &credentialsPage{PageData: PageData{Title: "Register"}})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	values, err := decodeForm(w, r, credentialFields...)
	if err != nil {
		s.badForm(w, r, err)
		return
	}
	creds := auth.Credentials{Username: values["username"], Password: values["password"]}

	page := &credentialsPage{PageData: PageData{Title: "Register"}, Username: creds.Username}

	user, err := s.Auth.Register(r.Context(), creds)
	var verr *common.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		page.Errors = verr.Messages()
		s.Templates.Render(w, http.StatusUnprocessableEntity, "register.html", page)
		return
	case errors.Is(err, common.ErrDuplicateUsername):
		page.Error = "That username is already taken."
		s.Templates.Render(w, http.StatusConflict, "register.html", page)
		return
	default:
		s.internalError(w, r, "failed to register user", err)
		return
	}

	slog.Info("user registered", "user", user.Username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := s.Auth.Logout(r.Context(), claims); err != nil {
		slog.Error("failed to revoke session", "error", err)
	} else {
		slog.Info("user logged out", "user", claims.Username)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
