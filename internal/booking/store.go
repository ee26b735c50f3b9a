package booking

import (
	"context"
	"time"
)

// Store describes persistence for booking-page data. Every method scoped by
// institutionID filters on it in the query itself; handlers never get the
// chance to compare tenant ids after the fact.
type Store interface {
	CreateProgram(ctx context.Context, p *Program) error
	ListPrograms(ctx context.Context, institutionID string) ([]*Program, error)
	ListActivePrograms(ctx context.Context, institutionID string) ([]*Program, error)
	FindProgram(ctx context.Context, institutionID, id string) (*Program, error)
	UpdateProgram(ctx context.Context, p *Program) error
	DeleteProgram(ctx context.Context, institutionID, id string) error

	CreateBooking(ctx context.Context, b *Booking) error
	ListBookings(ctx context.Context, institutionID string) ([]*Booking, error)
	FindBooking(ctx context.Context, institutionID, id string) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, institutionID, id, status string) error

	ListSchools(ctx context.Context, institutionID string) ([]*School, error)
	FindSchoolByEmail(ctx context.Context, institutionID, email string) (*School, error)
	CreateSchool(ctx context.Context, s *School) error
	IncrementSchoolBookings(ctx context.Context, id string) error

	Theme(ctx context.Context, institutionID string) (*Theme, error)
	UpsertTheme(ctx context.Context, t *Theme) error

	// DashboardCounts returns today's bookings, upcoming bookings (date >=
	// today, both excluding cancelled) and bookings created since monthStart.
	DashboardCounts(ctx context.Context, institutionID, today string, monthStart time.Time) (todayCount, upcoming, usedThisMonth int, err error)
}
