package payment

import (
	"context"
	"errors"
	"testing"

	"kulturabooking.org/internal/auth"
)

// fakeProvider scripts provider answers without any HTTP.
type fakeProvider struct {
	session      CheckoutSession
	createErr    error
	status       CheckoutStatus
	statusErr    error
	webhookEvent WebhookEvent
	webhookErr   error

	createCalls int
	statusCalls int
}

func (f *fakeProvider) CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	f.createCalls++
	if f.createErr != nil {
		return CheckoutSession{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeProvider) SessionStatus(ctx context.Context, sessionID string) (CheckoutStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return CheckoutStatus{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeProvider) VerifyWebhook(payload []byte, signatureHeader string) (WebhookEvent, error) {
	if f.webhookErr != nil {
		return WebhookEvent{}, f.webhookErr
	}
	return f.webhookEvent, nil
}

var testIdentity = auth.Identity{UserID: "user-1", InstitutionID: "inst-1", Email: "a@x.cz"}

func newTestService(provider *fakeProvider) (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	return NewService(store, provider, "https://booking.example"), store
}

func TestCreateSessionPersistsBeforeReturn(t *testing.T) {
	provider := &fakeProvider{
		session: CheckoutSession{SessionID: "cs_1", URL: "https://stripe/pay/cs_1"},
	}
	svc, store := newTestService(provider)

	tx, url, err := svc.CreateSession(context.Background(), testIdentity, "standard", "monthly")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if url != "https://stripe/pay/cs_1" {
		t.Fatalf("url = %q", url)
	}
	if tx.PaymentStatus != StatusInitiated || tx.Status != "pending" {
		t.Fatalf("initial state = %s/%s, want pending/initiated", tx.Status, tx.PaymentStatus)
	}
	if tx.Amount != 199_000 || tx.Currency != "czk" {
		t.Fatalf("amount = %d %s", tx.Amount, tx.Currency)
	}

	stored, err := store.FindBySession(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("row not persisted: %v", err)
	}
	if stored.InstitutionID != testIdentity.InstitutionID {
		t.Fatalf("institution = %q", stored.InstitutionID)
	}
}

func TestCreateSessionInvalidPackage(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(provider)

	_, _, err := svc.CreateSession(context.Background(), testIdentity, "platinum", "monthly")
	if !errors.Is(err, ErrUnknownPackage) {
		t.Fatalf("got %v, want ErrUnknownPackage", err)
	}
	if provider.createCalls != 0 {
		t.Fatal("provider called for invalid package")
	}
}

func TestCreateSessionProviderFailureLeavesNoRow(t *testing.T) {
	provider := &fakeProvider{createErr: errors.New("timeout")}
	svc, store := newTestService(provider)

	_, _, err := svc.CreateSession(context.Background(), testIdentity, "basic", "monthly")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("got %v, want ErrProvider", err)
	}
	if len(store.txs) != 0 {
		t.Fatal("orphan row persisted after provider failure")
	}
}

func createPaidSession(t *testing.T, svc *Service, provider *fakeProvider) *Transaction {
	t.Helper()
	provider.session = CheckoutSession{SessionID: "cs_1", URL: "https://stripe/pay/cs_1"}
	if _, _, err := svc.CreateSession(context.Background(), testIdentity, "basic", "monthly"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	provider.webhookEvent = WebhookEvent{
		ID: "evt_1", Type: "checkout.session.completed",
		SessionID: "cs_1", PaymentStatus: "paid",
	}
	tx, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if tx.PaymentStatus != StatusPaid {
		t.Fatalf("after webhook: %s, want paid", tx.PaymentStatus)
	}
	return tx
}

func TestWebhookIdempotentRedelivery(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(provider)
	first := createPaidSession(t, svc, provider)

	// Exact redelivery of the same event must succeed and change nothing.
	second, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("redelivered webhook: %v", err)
	}
	if second.PaymentStatus != StatusPaid {
		t.Fatalf("redelivery changed state to %s", second.PaymentStatus)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatal("redelivery rolled back updated_at")
	}
}

func TestWebhookCannotDowngradeTerminal(t *testing.T) {
	provider := &fakeProvider{}
	svc, store := newTestService(provider)
	createPaidSession(t, svc, provider)

	provider.webhookEvent = WebhookEvent{
		ID: "evt_2", Type: "checkout.session.expired",
		SessionID: "cs_1", PaymentStatus: "expired",
	}
	tx, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("late expired webhook: %v", err)
	}
	if tx.PaymentStatus != StatusPaid {
		t.Fatalf("terminal state downgraded to %s", tx.PaymentStatus)
	}
	stored, _ := store.FindBySession(context.Background(), "cs_1")
	if stored.PaymentStatus != StatusPaid {
		t.Fatalf("stored state downgraded to %s", stored.PaymentStatus)
	}
}

func TestStatusShortCircuitsWhenPaid(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(provider)
	createPaidSession(t, svc, provider)

	provider.statusErr = errors.New("provider must not be called")
	tx, err := svc.Status(context.Background(), testIdentity, "cs_1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if tx.PaymentStatus != StatusPaid {
		t.Fatalf("status = %s", tx.PaymentStatus)
	}
	if provider.statusCalls != 0 {
		t.Fatal("provider polled for an already-paid session")
	}
}

func TestStatusPollAdvancesState(t *testing.T) {
	provider := &fakeProvider{
		session: CheckoutSession{SessionID: "cs_1", URL: "https://stripe/pay/cs_1"},
		status:  CheckoutStatus{SessionStatus: "complete", PaymentStatus: "paid"},
	}
	svc, _ := newTestService(provider)
	if _, _, err := svc.CreateSession(context.Background(), testIdentity, "basic", "monthly"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	tx, err := svc.Status(context.Background(), testIdentity, "cs_1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if tx.PaymentStatus != StatusPaid || tx.Status != "complete" {
		t.Fatalf("poll result = %s/%s", tx.Status, tx.PaymentStatus)
	}
}

func TestStatusUnknownSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(provider)

	_, err := svc.Status(context.Background(), testIdentity, "cs_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStatusCrossTenantHidden(t *testing.T) {
	provider := &fakeProvider{}
	svc, _ := newTestService(provider)
	createPaidSession(t, svc, provider)

	other := auth.Identity{UserID: "user-9", InstitutionID: "inst-9"}
	_, err := svc.Status(context.Background(), other, "cs_1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read: got %v, want ErrNotFound", err)
	}
}

func TestWebhookUnknownSession(t *testing.T) {
	provider := &fakeProvider{
		webhookEvent: WebhookEvent{
			ID: "evt_1", Type: "checkout.session.completed",
			SessionID: "cs_ghost", PaymentStatus: "paid",
		},
	}
	svc, _ := newTestService(provider)

	_, err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWebhookSignatureRejection(t *testing.T) {
	provider := &fakeProvider{webhookErr: ErrSignatureInvalid}
	svc, _ := newTestService(provider)

	_, err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("got %v, want ErrSignatureInvalid", err)
	}
}
