package payment

import (
	"fmt"
	"strings"
	"time"
)

// Status is the closed enumeration for a transaction's payment state. The
// stored record also carries the provider's free-form session status string,
// but every write goes through the transition rules defined on this type.
type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further legitimate transition exists.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal transition.
// Re-asserting the current state is always allowed (idempotent redelivery);
// leaving a terminal state never is.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	switch s {
	case StatusInitiated:
		return true
	case StatusPending:
		return next != StatusInitiated
	case StatusProcessing:
		return next != StatusInitiated && next != StatusPending
	}
	return false
}

// ParseStatus maps a provider-reported payment status onto the closed
// enumeration. Stripe reports "unpaid" while a checkout is open and
// "no_payment_required" for zero-amount sessions.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusInitiated:
		return StatusInitiated, nil
	case StatusPending, "unpaid":
		return StatusPending, nil
	case StatusProcessing:
		return StatusProcessing, nil
	case StatusPaid, "no_payment_required":
		return StatusPaid, nil
	case StatusFailed:
		return StatusFailed, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusCancelled, "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Transaction is the local record of one checkout session. session_id is the
// idempotency key: at most one row exists per session and all updates are
// keyed by it, because provider events carry nothing else.
type Transaction struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	UserID        string    `json:"user_id"`
	SessionID     string    `json:"session_id"`
	Amount        int64     `json:"amount"` // minor units, no floats
	Currency      string    `json:"currency"`
	Package       string    `json:"package"`
	BillingCycle  string    `json:"billing_cycle"`
	Status        string    `json:"status"` // provider session status / event type
	PaymentStatus Status    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Package prices in CZK minor units, keyed by package then billing cycle.
// A static lookup, never user-supplied, so clients cannot control pricing.
var packagePrices = map[string]map[string]int64{
	"basic":    {"monthly": 99_000, "yearly": 990_000},
	"standard": {"monthly": 199_000, "yearly": 1_990_000},
	"premium":  {"monthly": 399_000, "yearly": 3_990_000},
}

// PriceFor resolves the fixed price for a package and billing cycle.
func PriceFor(pkg, cycle string) (int64, error) {
	cycles, ok := packagePrices[pkg]
	if !ok {
		return 0, fmt.Errorf("%w: package %q", ErrUnknownPackage, pkg)
	}
	amount, ok := cycles[cycle]
	if !ok {
		return 0, fmt.Errorf("%w: billing cycle %q", ErrUnknownPackage, cycle)
	}
	return amount, nil
}
