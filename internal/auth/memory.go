package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"kulturabooking.org/internal/ids"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore implements Store with in-process locking. Used by tests and
// by the API when no database is configured.
type InMemoryStore struct {
	mu           sync.RWMutex
	institutions map[string]*Institution
	users        map[string]*User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		institutions: make(map[string]*Institution),
		users:        make(map[string]*User),
	}
}

func (s *InMemoryStore) CreateTenant(ctx context.Context, inst *Institution, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst.ID == "" {
		inst.ID = ids.New()
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	user.InstitutionID = inst.ID
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	instCopy := *inst
	userCopy := *user
	s.institutions[inst.ID] = &instCopy
	s.users[user.ID] = &userCopy
	return nil
}

func (s *InMemoryStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindUser(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *InMemoryStore) FindInstitution(ctx context.Context, id string) (*Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.institutions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *inst
	return &out, nil
}
