package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kulturabooking.org/internal/obs"
)

// RegisterRequest carries the fields needed to create a tenant and its admin.
type RegisterRequest struct {
	Email           string
	Password        string
	InstitutionName string
	InstitutionType string
	Country         string
}

// Session is the result of a successful registration or login.
type Session struct {
	Token       string
	ExpiresAt   time.Time
	User        *User
	Institution *Institution
}

// Service provides registration, login and credential verification on top of
// a Store and the token service. It holds no mutable global state; everything
// is injected at construction.
type Service struct {
	store  Store
	tokens *Tokens
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service.
func NewService(store Store, tokens *Tokens, opts ...ServiceOption) *Service {
	s := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the underlying token service for the HTTP middleware.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Register creates a new institution with its admin user and issues a token.
// Email uniqueness is checked case-insensitively before creation; the check
// lives here rather than in a storage constraint, matching the rest of the
// validation flow.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if req.Password == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.InstitutionName) == "" {
		return Session{}, fmt.Errorf("%w: institution name is required", ErrInvalidInput)
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.now().UTC()
	inst := &Institution{
		Name:      strings.TrimSpace(req.InstitutionName),
		Type:      strings.TrimSpace(req.InstitutionType),
		Country:   strings.TrimSpace(req.Country),
		CreatedAt: now,
	}
	user := &User{
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    now,
	}
	if err := s.store.CreateTenant(ctx, inst, user); err != nil {
		return Session{}, fmt.Errorf("create tenant: %w", err)
	}

	token, exp, err := s.tokens.Issue(user.ID, inst.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: user, Institution: inst}, nil
}

// Login verifies credentials and issues a fresh token. Unknown email and
// wrong password collapse into the same error so callers cannot probe for
// registered addresses.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	inst, err := s.store.FindInstitution(ctx, user.InstitutionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	token, exp, err := s.tokens.Issue(user.ID, user.InstitutionID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: user, Institution: inst}, nil
}

// ForgotPassword intentionally answers identically whether or not the email
// exists, to avoid account enumeration. Actual reset-token issuance is not
// implemented; the request is only logged when the account is real.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		obs.LogRequest(map[string]any{
			"ts":    s.now().UTC().Format(time.RFC3339Nano),
			"level": "info",
			"msg":   "password_reset_requested",
			"email": email,
		})
	}
}
