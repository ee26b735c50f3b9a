package stream

import (
	"context"
	"sync"
	"time"
)

// Event is one admin-feed item: a booking arrived or changed, or a payment
// moved state. Payload carries the API representation of the subject.
type Event struct {
	Type          string    `json:"type"`
	InstitutionID string    `json:"institution_id"`
	Payload       any       `json:"payload"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventPaymentStatusChanged = "payment.status_changed"
)

type subscriber struct {
	institutionID string
	ch            chan Event
}

// Stream fan-outs events to active subscribers. Each subscriber sees only
// its own institution's events.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

func New() *Stream {
	return &Stream{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for one institution and returns the
// channel events arrive on. The channel closes when ctx ends.
func (s *Stream) Subscribe(ctx context.Context, institutionID string) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{institutionID: institutionID, ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish delivers evt to every subscriber of its institution. Slow
// subscribers are skipped rather than blocked on.
func (s *Stream) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.institutionID != evt.InstitutionID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
