package payment

import (
	"context"
	"sync"
	"time"

	"kulturabooking.org/internal/ids"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore implements Store with in-process locking, mirroring the
// conditional-update semantics of the SQL store. Used by tests and by the
// API when no database is configured.
type InMemoryStore struct {
	mu  sync.Mutex
	txs map[string]*Transaction // session_id -> transaction
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{txs: make(map[string]*Transaction)}
}

func (s *InMemoryStore) Create(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = ids.New()
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	cp := *tx
	s.txs[tx.SessionID] = &cp
	return nil
}

func (s *InMemoryStore) FindBySession(ctx context.Context, sessionID string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *InMemoryStore) ApplyStatus(ctx context.Context, sessionID, sessionStatus string, to Status) (*Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if tx.PaymentStatus.Terminal() {
		cp := *tx
		return &cp, false, nil
	}
	tx.Status = sessionStatus
	tx.PaymentStatus = to
	tx.UpdatedAt = time.Now().UTC()
	cp := *tx
	return &cp, true, nil
}
