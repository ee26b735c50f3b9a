package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"kulturabooking.org/internal/ids"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore implements Store with in-process locking. Used by tests and
// by the API when no database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	programs map[string]*Program
	bookings map[string]*Booking
	schools  map[string]*School
	themes   map[string]*Theme
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		programs: make(map[string]*Program),
		bookings: make(map[string]*Booking),
		schools:  make(map[string]*School),
		themes:   make(map[string]*Theme),
	}
}

func (s *InMemoryStore) CreateProgram(ctx context.Context, p *Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListPrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.filterPrograms(institutionID, false), nil
}

func (s *InMemoryStore) ListActivePrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.filterPrograms(institutionID, true), nil
}

func (s *InMemoryStore) filterPrograms(institutionID string, activeOnly bool) []*Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Program
	for _, p := range s.programs {
		if p.InstitutionID != institutionID {
			continue
		}
		if activeOnly && p.Status != "active" {
			continue
		}
		cp := *p
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res
}

func (s *InMemoryStore) FindProgram(ctx context.Context, institutionID, id string) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[id]
	if !ok || p.InstitutionID != institutionID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) UpdateProgram(ctx context.Context, p *Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.programs[p.ID]
	if !ok || existing.InstitutionID != p.InstitutionID {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) DeleteProgram(ctx context.Context, institutionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok || p.InstitutionID != institutionID {
		return ErrNotFound
	}
	delete(s.programs, id)
	return nil
}

func (s *InMemoryStore) CreateBooking(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = ids.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListBookings(ctx context.Context, institutionID string) ([]*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Booking
	for _, b := range s.bookings {
		if b.InstitutionID != institutionID {
			continue
		}
		cp := *b
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *InMemoryStore) FindBooking(ctx context.Context, institutionID, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok || b.InstitutionID != institutionID {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) UpdateBookingStatus(ctx context.Context, institutionID, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.InstitutionID != institutionID {
		return ErrNotFound
	}
	b.Status = status
	return nil
}

func (s *InMemoryStore) ListSchools(ctx context.Context, institutionID string) ([]*School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*School
	for _, sc := range s.schools {
		if sc.InstitutionID != institutionID {
			continue
		}
		cp := *sc
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (s *InMemoryStore) FindSchoolByEmail(ctx context.Context, institutionID, email string) (*School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.schools {
		if sc.InstitutionID == institutionID && strings.EqualFold(sc.Email, email) {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) CreateSchool(ctx context.Context, sc *School) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID == "" {
		sc.ID = ids.New()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}
	cp := *sc
	s.schools[sc.ID] = &cp
	return nil
}

func (s *InMemoryStore) IncrementSchoolBookings(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.schools[id]
	if !ok {
		return ErrNotFound
	}
	sc.BookingCount++
	return nil
}

func (s *InMemoryStore) Theme(ctx context.Context, institutionID string) (*Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.themes[institutionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) UpsertTheme(ctx context.Context, t *Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.themes[t.InstitutionID] = &cp
	return nil
}

func (s *InMemoryStore) DashboardCounts(ctx context.Context, institutionID, today string, monthStart time.Time) (int, int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var todayCount, upcoming, used int
	for _, b := range s.bookings {
		if b.InstitutionID != institutionID {
			continue
		}
		if b.Status != "cancelled" {
			if b.Date == today {
				todayCount++
			}
			if b.Date >= today {
				upcoming++
			}
		}
		if !b.CreatedAt.Before(monthStart) {
			used++
		}
	}
	return todayCount, upcoming, used, nil
}
