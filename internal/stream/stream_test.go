package stream

import (
	"context"
	"testing"
	"time"
)

func TestPublishScopedToInstitution(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chA := s.Subscribe(ctx, "inst-a")
	chB := s.Subscribe(ctx, "inst-b")

	s.Publish(Event{Type: EventBookingCreated, InstitutionID: "inst-a"})

	select {
	case evt := <-chA:
		if evt.InstitutionID != "inst-a" || evt.Type != EventBookingCreated {
			t.Fatalf("unexpected event: %+v", evt)
		}
		if evt.Timestamp.IsZero() {
			t.Fatal("timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber A received nothing")
	}

	select {
	case evt := <-chB:
		t.Fatalf("subscriber B received foreign event: %+v", evt)
	default:
	}
}

func TestSubscribeClosesOnContextEnd(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx, "inst-a")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context end")
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx, "inst-a")
	// fill the buffer and keep publishing; Publish must never block
	for i := 0; i < 64; i++ {
		s.Publish(Event{Type: EventBookingCreated, InstitutionID: "inst-a"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer = %d, want full (%d)", len(ch), cap(ch))
	}
}
