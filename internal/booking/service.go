package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kulturabooking.org/internal/obs"
)

// Mailer delivers booking confirmations. The notify package provides the
// default implementation; tests stub it.
type Mailer interface {
	BookingConfirmation(ctx context.Context, to string, b *Booking, p *Program) error
}

const monthlyBookingLimit = 50

// Service wraps Store with the behaviour handlers should not carry:
// validation, school upsert, confirmation mail, dashboard math.
type Service struct {
	store  Store
	mailer Mailer
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, mailer Mailer, opts ...Option) *Service {
	s := &Service{store: store, mailer: mailer, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Programs -----------------------------------------------------------------

func (s *Service) CreateProgram(ctx context.Context, p *Program) (*Program, error) {
	if err := validateProgram(p); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = "active"
	}
	p.CreatedAt = s.now().UTC()
	if err := s.store.CreateProgram(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.store.ListPrograms(ctx, institutionID)
}

func (s *Service) ListPublicPrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.store.ListActivePrograms(ctx, institutionID)
}

func (s *Service) FindProgram(ctx context.Context, institutionID, id string) (*Program, error) {
	return s.store.FindProgram(ctx, institutionID, id)
}

func (s *Service) UpdateProgram(ctx context.Context, p *Program) (*Program, error) {
	if err := validateProgram(p); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProgram(ctx, p); err != nil {
		return nil, err
	}
	return s.store.FindProgram(ctx, p.InstitutionID, p.ID)
}

func (s *Service) DeleteProgram(ctx context.Context, institutionID, id string) error {
	return s.store.DeleteProgram(ctx, institutionID, id)
}

func validateProgram(p *Program) error {
	if p.InstitutionID == "" || strings.TrimSpace(p.NameCS) == "" {
		return ErrInvalidInput
	}
	if p.Duration <= 0 || p.MaxCapacity <= 0 || p.MinCapacity < 0 || p.MinCapacity > p.MaxCapacity {
		return ErrInvalidInput
	}
	if p.Price < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Bookings -----------------------------------------------------------------

// CreateBooking handles the public booking form: the program must exist and
// be active for the institution, the school record is upserted by contact
// email, and a confirmation mail goes out best-effort.
func (s *Service) CreateBooking(ctx context.Context, b *Booking) (*Booking, error) {
	if b.InstitutionID == "" || b.ProgramID == "" || b.Date == "" || b.ContactEmail == "" {
		return nil, ErrInvalidInput
	}
	if !b.GDPRConsent {
		return nil, ErrInvalidInput
	}
	program, err := s.store.FindProgram(ctx, b.InstitutionID, b.ProgramID)
	if err != nil {
		return nil, err
	}
	if program.Status != "active" {
		return nil, ErrNotFound
	}

	b.Status = "pending"
	b.CreatedAt = s.now().UTC()
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	if err := s.recordSchool(ctx, b); err != nil {
		obs.LogRequest(map[string]any{
			"event":      "school_record_failed",
			"booking_id": b.ID,
			"error":      err.Error(),
		})
	}

	if s.mailer != nil {
		if err := s.mailer.BookingConfirmation(ctx, b.ContactEmail, b, program); err != nil {
			obs.LogRequest(map[string]any{
				"event":      "booking_mail_failed",
				"booking_id": b.ID,
				"error":      err.Error(),
			})
		}
	}
	return b, nil
}

func (s *Service) recordSchool(ctx context.Context, b *Booking) error {
	sc, err := s.store.FindSchoolByEmail(ctx, b.InstitutionID, b.ContactEmail)
	switch {
	case err == nil:
		return s.store.IncrementSchoolBookings(ctx, sc.ID)
	case err == ErrNotFound:
		return s.store.CreateSchool(ctx, &School{
			InstitutionID: b.InstitutionID,
			Name:          b.SchoolName,
			ContactPerson: b.ContactName,
			Email:         b.ContactEmail,
			Phone:         b.ContactPhone,
			BookingCount:  1,
			CreatedAt:     s.now().UTC(),
		})
	default:
		return err
	}
}

func (s *Service) ListBookings(ctx context.Context, institutionID string) ([]*Booking, error) {
	return s.store.ListBookings(ctx, institutionID)
}

func (s *Service) FindBooking(ctx context.Context, institutionID, id string) (*Booking, error) {
	return s.store.FindBooking(ctx, institutionID, id)
}

func (s *Service) UpdateBookingStatus(ctx context.Context, institutionID, id, status string) (*Booking, error) {
	switch status {
	case "pending", "confirmed", "cancelled":
	default:
		return nil, ErrInvalidInput
	}
	if err := s.store.UpdateBookingStatus(ctx, institutionID, id, status); err != nil {
		return nil, err
	}
	return s.store.FindBooking(ctx, institutionID, id)
}

// Schools ------------------------------------------------------------------

func (s *Service) ListSchools(ctx context.Context, institutionID string) ([]*School, error) {
	return s.store.ListSchools(ctx, institutionID)
}

// Theme --------------------------------------------------------------------

// Theme never fails on a missing row; registration may predate the settings
// write, so the default branding stands in.
func (s *Service) Theme(ctx context.Context, institutionID string) (*Theme, error) {
	t, err := s.store.Theme(ctx, institutionID)
	if err == ErrNotFound {
		return DefaultTheme(institutionID), nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) SaveTheme(ctx context.Context, t *Theme) (*Theme, error) {
	if t.InstitutionID == "" {
		return nil, ErrInvalidInput
	}
	def := DefaultTheme(t.InstitutionID)
	if t.PrimaryColor == "" {
		t.PrimaryColor = def.PrimaryColor
	}
	if t.SecondaryColor == "" {
		t.SecondaryColor = def.SecondaryColor
	}
	if t.AccentColor == "" {
		t.AccentColor = def.AccentColor
	}
	if t.HeaderStyle == "" {
		t.HeaderStyle = def.HeaderStyle
	}
	if err := s.store.UpsertTheme(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// EnsureDefaultTheme writes the default branding if the institution has none.
// Called once at registration.
func (s *Service) EnsureDefaultTheme(ctx context.Context, institutionID string) error {
	_, err := s.store.Theme(ctx, institutionID)
	if err == nil {
		return nil
	}
	if err != ErrNotFound {
		return err
	}
	return s.store.UpsertTheme(ctx, DefaultTheme(institutionID))
}

// Dashboard ----------------------------------------------------------------

func (s *Service) DashboardStats(ctx context.Context, institutionID string) (*DashboardStats, error) {
	now := s.now().UTC()
	today := now.Format("2006-01-02")
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	todayCount, upcoming, used, err := s.store.DashboardCounts(ctx, institutionID, today, monthStart)
	if err != nil {
		return nil, err
	}

	usage := float64(used) / float64(monthlyBookingLimit) * 100
	if usage > 100 {
		usage = 100
	}
	return &DashboardStats{
		TodayBookings:  todayCount,
		UpcomingGroups: upcoming,
		CapacityUsage:  usage,
		BookingsUsed:   used,
		BookingsLimit:  monthlyBookingLimit,
	}, nil
}

// Series is one chart on the statistics page.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Statistics aggregates bookings per month and per program for the current
// tenant. Months are the last six, oldest first.
func (s *Service) Statistics(ctx context.Context, institutionID string) (map[string]Series, error) {
	bookings, err := s.store.ListBookings(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	programs, err := s.store.ListPrograms(ctx, institutionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthLabels := make([]string, 6)
	monthKeys := make(map[string]int, 6)
	for i := 0; i < 6; i++ {
		m := now.AddDate(0, i-5, 0)
		key := m.Format("2006-01")
		monthLabels[i] = m.Format("Jan 2006")
		monthKeys[key] = i
	}
	monthly := make([]int, 6)
	perProgram := make(map[string]int)
	for _, b := range bookings {
		if idx, ok := monthKeys[b.CreatedAt.Format("2006-01")]; ok {
			monthly[idx]++
		}
		perProgram[b.ProgramID]++
	}

	programLabels := make([]string, 0, len(programs))
	programData := make([]int, 0, len(programs))
	for _, p := range programs {
		programLabels = append(programLabels, p.NameCS)
		programData = append(programData, perProgram[p.ID])
	}

	return map[string]Series{
		"monthly_bookings": {Labels: monthLabels, Data: monthly},
		"program_bookings": {Labels: programLabels, Data: programData},
	}, nil
}

// Demo ---------------------------------------------------------------------

// DemoInstitutionID is the fixed tenant id the public demo pages resolve to.
const DemoInstitutionID = "demo"

// DemoPrograms returns the sample catalogue served on the demo booking page.
func DemoPrograms() []*Program {
	return []*Program{
		{
			ID:            "demo-1",
			InstitutionID: DemoInstitutionID,
			NameCS:        "Cesta do pravěku",
			NameEN:        "Journey to Prehistory",
			DescriptionCS: "Interaktivní program o životě v pravěku s ukázkami nástrojů.",
			DescriptionEN: "Interactive programme about prehistoric life with tool demonstrations.",
			Duration:      90,
			AgeGroup:      "6-12 let",
			MinCapacity:   10,
			MaxCapacity:   30,
			TargetGroup:   "schools",
			Price:         8_000,
			Status:        "active",
		},
		{
			ID:            "demo-2",
			InstitutionID: DemoInstitutionID,
			NameCS:        "Středověké řemeslo",
			NameEN:        "Medieval Crafts",
			DescriptionCS: "Dílna středověkých řemesel, výroba vlastního výrobku.",
			DescriptionEN: "Medieval crafts workshop, make your own artefact.",
			Duration:      120,
			AgeGroup:      "10-15 let",
			MinCapacity:   8,
			MaxCapacity:   25,
			TargetGroup:   "schools",
			Price:         12_000,
			Status:        "active",
		},
		{
			ID:            "demo-3",
			InstitutionID: DemoInstitutionID,
			NameCS:        "Komentovaná prohlídka",
			NameEN:        "Guided Tour",
			DescriptionCS: "Komentovaná prohlídka stálé expozice s kurátorem.",
			DescriptionEN: "Guided tour of the permanent exhibition with a curator.",
			Duration:      60,
			AgeGroup:      "všechny věkové kategorie",
			MinCapacity:   5,
			MaxCapacity:   40,
			TargetGroup:   "public",
			Price:         15_000,
			Status:        "active",
		},
	}
}

// DemoTheme is the branding shown on the demo booking page.
func DemoTheme() *Theme {
	t := DefaultTheme(DemoInstitutionID)
	t.FooterText = "Demo Muzeum - Ukázkový rezervační systém"
	return t
}

// RecordDemoBooking acknowledges a demo-page booking without persisting it.
func RecordDemoBooking(b *Booking) *Booking {
	b.ID = fmt.Sprintf("demo-booking-%d", time.Now().UnixNano())
	b.InstitutionID = DemoInstitutionID
	b.Status = "pending"
	b.CreatedAt = time.Now().UTC()
	obs.LogRequest(map[string]any{
		"event":      "demo_booking",
		"program_id": b.ProgramID,
		"date":       b.Date,
	})
	return b
}
