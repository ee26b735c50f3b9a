package payment

import (
	"errors"
	"testing"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusPaid, StatusFailed, StatusExpired, StatusCancelled}
	live := []Status{StatusInitiated, StatusPending, StatusProcessing}

	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range live {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// same state is always an allowed no-op (idempotent redelivery)
		{StatusPaid, StatusPaid, true},
		{StatusPending, StatusPending, true},

		// terminal states never move elsewhere
		{StatusPaid, StatusFailed, false},
		{StatusPaid, StatusPending, false},
		{StatusFailed, StatusPaid, false},
		{StatusExpired, StatusPending, false},
		{StatusCancelled, StatusPaid, false},

		// forward progress
		{StatusInitiated, StatusPending, true},
		{StatusInitiated, StatusPaid, true},
		{StatusInitiated, StatusFailed, true},
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusPaid, true},
		{StatusProcessing, StatusPaid, true},

		// no moving backwards
		{StatusPending, StatusInitiated, false},
		{StatusProcessing, StatusInitiated, false},
		{StatusProcessing, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"paid":                StatusPaid,
		"PAID":                StatusPaid,
		" unpaid ":            StatusPending,
		"no_payment_required": StatusPaid,
		"canceled":            StatusCancelled,
		"cancelled":           StatusCancelled,
		"expired":             StatusExpired,
		"processing":          StatusProcessing,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseStatus("definitely-not-a-status"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("unknown status: got %v, want ErrUnknownStatus", err)
	}
}

func TestPriceFor(t *testing.T) {
	cases := []struct {
		pkg, cycle string
		want       int64
	}{
		{"basic", "monthly", 99_000},
		{"basic", "yearly", 990_000},
		{"standard", "monthly", 199_000},
		{"standard", "yearly", 1_990_000},
		{"premium", "monthly", 399_000},
		{"premium", "yearly", 3_990_000},
	}
	for _, c := range cases {
		got, err := PriceFor(c.pkg, c.cycle)
		if err != nil {
			t.Fatalf("PriceFor(%s, %s): %v", c.pkg, c.cycle, err)
		}
		if got != c.want {
			t.Fatalf("PriceFor(%s, %s) = %d, want %d", c.pkg, c.cycle, got, c.want)
		}
	}

	if _, err := PriceFor("platinum", "monthly"); !errors.Is(err, ErrUnknownPackage) {
		t.Fatalf("unknown package: got %v, want ErrUnknownPackage", err)
	}
	if _, err := PriceFor("basic", "weekly"); !errors.Is(err, ErrUnknownPackage) {
		t.Fatalf("unknown cycle: got %v, want ErrUnknownPackage", err)
	}
}
