package payment

import "context"

// CheckoutRequest asks the provider for a hosted checkout flow.
type CheckoutRequest struct {
	Amount     int64 // minor units
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession identifies a provider-hosted payment flow.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutStatus is the provider's current answer for a session.
type CheckoutStatus struct {
	SessionStatus string
	PaymentStatus string
}

// WebhookEvent is a signature-verified provider push.
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
}

// Provider is the capability interface the reconciliation engine depends on.
// The engine never sees a provider SDK; signature verification in particular
// is delegated here and must reject before any payload field is trusted.
type Provider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	SessionStatus(ctx context.Context, sessionID string) (CheckoutStatus, error)
	VerifyWebhook(payload []byte, signatureHeader string) (WebhookEvent, error)
}
