package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer          = "kulturabooking"
	defaultTokenTTL = 30 * 24 * time.Hour
)

// Claims carries the tenant-scoped identity embedded in every bearer token.
// The payload is a fixed structured record, never an open map.
type Claims struct {
	UserID        string `json:"user_id"`
	InstitutionID string `json:"institution_id"`
	Email         string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed, time-limited bearer tokens. It is fully
// stateless: invalidation is expiry-only, there is no revocation list.
// Compromise of the shared secret forges tokens for any tenant; that is a
// documented residual risk of the single-secret HS256 design.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures Tokens.
type TokenOption func(*Tokens)

// WithTokenTTL overrides the default 30-day token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *Tokens) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens constructs the token service around a shared signing secret.
func NewTokens(secret string, opts ...TokenOption) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	t := &Tokens{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token binding the user to its institution.
func (t *Tokens) Issue(userID, institutionID, email string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(institutionID) == "" {
		return "", time.Time{}, ErrInvalidInput
	}
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:        userID,
		InstitutionID: institutionID,
		Email:         email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry and returns the typed claims.
// Expired and structurally invalid tokens map to distinct sentinel errors.
// A token whose exp equals the current instant counts as expired.
func (t *Tokens) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.InstitutionID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
