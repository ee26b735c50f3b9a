package payment

import "context"

// Store describes persistence for payment transactions. The transaction row
// per session_id is the unit of contention: ApplyStatus is the only mutation
// primitive and it is a conditional update, never an unconditional overwrite.
type Store interface {
	Create(ctx context.Context, tx *Transaction) error
	FindBySession(ctx context.Context, sessionID string) (*Transaction, error)

	// ApplyStatus atomically sets status/payment_status for the session,
	// but only if the stored payment status is not already terminal. It
	// returns the row as stored after the attempt and whether the write
	// applied. A missing row is ErrNotFound, never a create-on-demand.
	ApplyStatus(ctx context.Context, sessionID, sessionStatus string, to Status) (*Transaction, bool, error)
}
