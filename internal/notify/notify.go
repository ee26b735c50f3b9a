// Package notify delivers outbound messages to visitors. The default
// implementation only logs; SMTP delivery plugs in behind the same interface.
package notify

import (
	"context"

	"kulturabooking.org/internal/booking"
	"kulturabooking.org/internal/obs"
)

// LogMailer records the would-be delivery as a structured log line.
type LogMailer struct{}

var _ booking.Mailer = LogMailer{}

func (LogMailer) BookingConfirmation(ctx context.Context, to string, b *booking.Booking, p *booking.Program) error {
	obs.LogRequest(map[string]any{
		"event":      "booking_confirmation_mail",
		"to":         to,
		"booking_id": b.ID,
		"program":    p.NameCS,
		"date":       b.Date,
		"time_block": b.TimeBlock,
	})
	return nil
}
