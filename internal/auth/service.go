package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/shramba/internal/common"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
	"github.com/erazemk/shramba/internal/validation"
)

// Credentials is the login and registration form.
type Credentials struct {
	Username string `form:"username" validate:"required,max=100"`
	Password string `form:"password" validate:"required"`
}

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Service registers users and issues, checks and revokes session tokens.
type Service struct {
	DB       *db.DB
	Secret   string
	TokenTTL time.Duration
	Cost     int // bcrypt cost

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService returns a Service using bcrypt.DefaultCost.
func NewService(database *db.DB, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	return &Service{
		DB:       database,
		Secret:   secret,
		TokenTTL: ttl,
		Cost:     bcrypt.DefaultCost,
	}
}

func (c *Credentials) normalize() error {
	c.Username = strings.TrimSpace(c.Username)
	if err := validation.Struct(c); err != nil {
		return err
	}
	if len(c.Password) > 72 {
		return common.NewValidationError("password", "password must be at most 72 bytes")
	}
	return nil
}

// Register creates an account. It fails with common.ErrDuplicateUsername if
// the username is taken.
func (s *Service) Register(ctx context.Context, c Credentials) (*model.User, error) {
	if err := c.normalize(); err != nil {
		return nil, err
	}

	existing, err := store.GetUserByUsername(ctx, s.DB, c.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// The UNIQUE constraint still catches a concurrent registration.
	return store.CreateUser(ctx, s.DB, c.Username, string(hash))
}

// Login verifies credentials and issues a session token. Unknown users and
// wrong passwords both yield common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, c Credentials) (*Session, error) {
	if err := c.normalize(); err != nil {
		return nil, err
	}

	user, err := store.GetUserByUsername(ctx, s.DB, c.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Spend the same bcrypt time as for a real account.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(c.Password))
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, user.ID, user.Username, s.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.TokenTTL),
		User:      user,
	}, nil
}

// Authenticate validates a session token and checks that it was not revoked.
// Any failure is reported as common.ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := ValidateToken(s.Secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
	}

	revoked, err := store.IsTokenRevoked(ctx, s.DB, claims.ID)
	if err != nil {
		return nil, errors.Join(common.ErrUnauthenticated, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", common.ErrUnauthenticated)
	}

	return claims, nil
}

// Logout revokes the session until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return common.ErrUnauthenticated
	}

	expiresAt := time.Now().Add(s.TokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return store.RevokeToken(ctx, s.DB, claims.ID, expiresAt)
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shramba-timing-equalizer"), s.Cost)
	})
	return s.dummyHash
}
