package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	signed, exp, err := tokens.Issue("user-1", "inst-1", "a@x.cz")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if exp.Before(time.Now()) {
		t.Fatal("expiry in the past")
	}

	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.InstitutionID != "inst-1" || claims.Email != "a@x.cz" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued

	tokens, err := NewTokens("test-secret",
		WithTokenTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	signed, exp, err := tokens.Issue("user-1", "inst-1", "a@x.cz")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := tokens.Verify(signed); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	// exp == now counts as expired
	current = exp
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("token at exact expiry: got %v, want ErrTokenExpired", err)
	}

	current = exp.Add(time.Minute)
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("token past expiry: got %v, want ErrTokenExpired", err)
	}
}

func TestTokenTampered(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	signed, _, err := tokens.Issue("user-1", "inst-1", "a@x.cz")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", signed)
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	if _, err := tokens.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: got %v, want ErrInvalidToken", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuerTokens, err := NewTokens("secret-a")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	verifier, err := NewTokens("secret-b")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	signed, _, err := issuerTokens.Issue("user-1", "inst-1", "a@x.cz")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-secret token: got %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): got %v, want ErrInvalidToken", raw, err)
		}
	}
}
