package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kulturabooking.org/internal/payment"
)

const webhookPayload = `{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_1", "payment_status": "paid"}}
}`

func testClient(opts ...Option) *Client {
	return New("sk_test_x", "whsec_test", opts...)
}

func TestVerifyWebhook(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testClient(WithClock(func() time.Time { return now }))

	header := c.SignPayload([]byte(webhookPayload), now)
	event, err := c.VerifyWebhook([]byte(webhookPayload), header)
	if err != nil {
		t.Fatalf("VerifyWebhook: %v", err)
	}
	if event.SessionID != "cs_1" || event.PaymentStatus != "paid" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected type: %s", event.Type)
	}
}

func TestVerifyWebhookBadSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testClient(WithClock(func() time.Time { return now }))

	header := c.SignPayload([]byte(webhookPayload), now)
	tampered := []byte(strings.Replace(webhookPayload, "paid", "free", 1))
	if _, err := c.VerifyWebhook(tampered, header); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("tampered payload: got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyWebhookWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := New("sk_test_x", "whsec_other", WithClock(func() time.Time { return now }))
	c := testClient(WithClock(func() time.Time { return now }))

	header := signer.SignPayload([]byte(webhookPayload), now)
	if _, err := c.VerifyWebhook([]byte(webhookPayload), header); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("foreign secret: got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyWebhookStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := testClient(WithClock(func() time.Time { return now }))

	header := c.SignPayload([]byte(webhookPayload), now.Add(-6*time.Minute))
	if _, err := c.VerifyWebhook([]byte(webhookPayload), header); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("stale timestamp: got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyWebhookMalformedHeader(t *testing.T) {
	c := testClient()
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=123"} {
		if _, err := c.VerifyWebhook([]byte(webhookPayload), header); !errors.Is(err, payment.ErrSignatureInvalid) {
			t.Fatalf("header %q: got %v, want ErrSignatureInvalid", header, err)
		}
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_x" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "99000" {
			t.Errorf("unit_amount = %q", got)
		}
		if got := r.PostForm.Get("metadata[institution_id]"); got != "inst-1" {
			t.Errorf("metadata institution = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.stripe.com/cs_1"}`))
	}))
	defer srv.Close()

	c := testClient(WithBaseURL(srv.URL))
	session, err := c.CreateSession(context.Background(), payment.CheckoutRequest{
		Amount:     99_000,
		Currency:   "czk",
		SuccessURL: "https://x/success",
		CancelURL:  "https://x/cancel",
		Metadata:   map[string]string{"institution_id": "inst-1"},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.SessionID != "cs_1" || session.URL != "https://checkout.stripe.com/cs_1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestSessionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","status":"complete","payment_status":"paid"}`))
	}))
	defer srv.Close()

	c := testClient(WithBaseURL(srv.URL))
	status, err := c.SessionStatus(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if status.SessionStatus != "complete" || status.PaymentStatus != "paid" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestCreateSessionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(WithBaseURL(srv.URL))
	if _, err := c.CreateSession(context.Background(), payment.CheckoutRequest{Amount: 1}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
