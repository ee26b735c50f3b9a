package payment

import (
	"context"
	"database/sql"
	"errors"

	"kulturabooking.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const txColumns = `id, institution_id, user_id, session_id, amount, currency,
	package, billing_cycle, status, payment_status, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, tx *Transaction) error {
	if tx.ID == "" {
		tx.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into payment_transactions(id, institution_id, user_id, session_id,
			amount, currency, package, billing_cycle, status, payment_status)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		tx.ID, tx.InstitutionID, tx.UserID, tx.SessionID,
		tx.Amount, tx.Currency, tx.Package, tx.BillingCycle, tx.Status, string(tx.PaymentStatus),
	)
	return err
}

func (s *PGStore) FindBySession(ctx context.Context, sessionID string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+txColumns+` from payment_transactions where session_id=$1`, sessionID)
	return scanTransaction(row)
}

func (s *PGStore) ApplyStatus(ctx context.Context, sessionID, sessionStatus string, to Status) (*Transaction, bool, error) {
	// The predicate excludes terminal rows so a delayed poll can never
	// downgrade a settled transaction, regardless of arrival order.
	res, err := s.db.ExecContext(ctx,
		`update payment_transactions
		 set status=$2, payment_status=$3, updated_at=now()
		 where session_id=$1
		   and payment_status not in ('paid','failed','expired','cancelled')`,
		sessionID, sessionStatus, string(to),
	)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	tx, err := s.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return tx, affected == 1, nil
}

func scanTransaction(row *sql.Row) (*Transaction, error) {
	var (
		tx     Transaction
		status string
	)
	err := row.Scan(&tx.ID, &tx.InstitutionID, &tx.UserID, &tx.SessionID,
		&tx.Amount, &tx.Currency, &tx.Package, &tx.BillingCycle,
		&tx.Status, &status, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	tx.PaymentStatus = Status(status)
	return &tx, nil
}
