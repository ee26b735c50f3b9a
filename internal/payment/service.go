package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kulturabooking.org/internal/auth"
	"kulturabooking.org/internal/ids"
	"kulturabooking.org/internal/obs"
)

const providerCallTimeout = 10 * time.Second

// Service owns the payment session lifecycle: it creates checkout sessions
// and reconciles a transaction's status across the three independent entry
// points (creation, client poll, provider webhook). All ordering guarantees
// the system offers live here and in Store.ApplyStatus.
type Service struct {
	store    Store
	provider Provider
	baseURL  string
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the payment service. baseURL is the public origin
// used to build checkout success/cancel redirects.
func NewService(store Store, provider Provider, baseURL string, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession validates the package against the fixed price table, obtains
// a hosted checkout session from the provider and persists the local
// transaction row before returning, so a webhook or poll racing the response
// already has a row to update against. The row is written only after the
// provider call succeeds; a provider timeout therefore leaves no orphan row.
func (s *Service) CreateSession(ctx context.Context, identity auth.Identity, pkg, cycle string) (*Transaction, string, error) {
	amount, err := PriceFor(pkg, cycle)
	if err != nil {
		return nil, "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	session, err := s.provider.CreateSession(callCtx, CheckoutRequest{
		Amount:     amount,
		Currency:   "czk",
		SuccessURL: s.baseURL + "/admin/plan/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/admin/plan",
		Metadata: map[string]string{
			"institution_id": identity.InstitutionID,
			"user_id":        identity.UserID,
			"package":        pkg,
			"billing_cycle":  cycle,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: create session: %v", ErrProvider, err)
	}

	tx := &Transaction{
		ID:            ids.New(),
		InstitutionID: identity.InstitutionID,
		UserID:        identity.UserID,
		SessionID:     session.SessionID,
		Amount:        amount,
		Currency:      "czk",
		Package:       pkg,
		BillingCycle:  cycle,
		Status:        "pending",
		PaymentStatus: StatusInitiated,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return nil, "", fmt.Errorf("persist transaction: %w", err)
	}
	return tx, session.URL, nil
}

// Status answers a client poll for a session. The transaction must belong to
// the caller's institution; a row owned by another tenant is reported as not
// found so existence cannot be probed across tenants. A transaction already
// paid is returned without contacting the provider again.
func (s *Service) Status(ctx context.Context, identity auth.Identity, sessionID string) (*Transaction, error) {
	tx, err := s.store.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if tx.InstitutionID != identity.InstitutionID {
		return nil, ErrNotFound
	}
	if tx.PaymentStatus == StatusPaid {
		return tx, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()
	status, err := s.provider.SessionStatus(callCtx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session status: %v", ErrProvider, err)
	}
	to, err := ParseStatus(status.PaymentStatus)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, status.SessionStatus, to)
}

// HandleWebhook processes an asynchronous provider push. The signature is
// verified before any payload field is trusted; the session must already
// have a row from the creation path. Redelivery of the current terminal
// state is a no-op success.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*Transaction, error) {
	event, err := s.provider.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return nil, err
	}
	obs.ObserveWebhookEvent(event.Type)

	tx, err := s.store.FindBySession(ctx, event.SessionID)
	if err != nil {
		return nil, err
	}
	to, err := ParseStatus(event.PaymentStatus)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, event.Type, to)
}

// apply performs the conditional state transition. The read in tx may be
// stale by the time the update runs; ApplyStatus re-checks terminality
// atomically, so concurrent poll/webhook arrival cannot overwrite a settled
// state. Writes that lose the race are reported as anomalies unless they
// merely re-assert the stored state.
func (s *Service) apply(ctx context.Context, tx *Transaction, sessionStatus string, to Status) (*Transaction, error) {
	from := tx.PaymentStatus
	if !from.CanTransition(to) {
		s.logAnomaly(tx.SessionID, from, to)
		return tx, nil
	}
	updated, applied, err := s.store.ApplyStatus(ctx, tx.SessionID, sessionStatus, to)
	if err != nil {
		return nil, err
	}
	if applied {
		obs.ObservePaymentTransition(string(from), string(to))
		return updated, nil
	}
	if updated.PaymentStatus != to {
		s.logAnomaly(tx.SessionID, updated.PaymentStatus, to)
	}
	return updated, nil
}

func (s *Service) logAnomaly(sessionID string, from, to Status) {
	obs.ObservePaymentAnomaly()
	obs.LogRequest(map[string]any{
		"ts":         s.now().UTC().Format(time.RFC3339Nano),
		"level":      "warn",
		"msg":        "payment_transition_rejected",
		"session_id": sessionID,
		"from":       string(from),
		"to":         string(to),
	})
}
