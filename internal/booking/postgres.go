package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

// Programs -----------------------------------------------------------------

const programColumns = `id, institution_id, name_cs, name_en, description_cs, description_en,
	duration, age_group, min_capacity, max_capacity, target_group, price, status, created_at`

func (s *PGStore) CreateProgram(ctx context.Context, p *Program) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into programs(id, institution_id, name_cs, name_en, description_cs, description_en,
			duration, age_group, min_capacity, max_capacity, target_group, price, status)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.InstitutionID, p.NameCS, p.NameEN, p.DescriptionCS, p.DescriptionEN,
		p.Duration, p.AgeGroup, p.MinCapacity, p.MaxCapacity, p.TargetGroup, p.Price, p.Status,
	)
	return err
}

func (s *PGStore) ListPrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.queryPrograms(ctx,
		`select `+programColumns+` from programs where institution_id=$1 order by created_at`,
		institutionID)
}

func (s *PGStore) ListActivePrograms(ctx context.Context, institutionID string) ([]*Program, error) {
	return s.queryPrograms(ctx,
		`select `+programColumns+` from programs where institution_id=$1 and status='active' order by created_at`,
		institutionID)
}

func (s *PGStore) FindProgram(ctx context.Context, institutionID, id string) (*Program, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+programColumns+` from programs where id=$1 and institution_id=$2`, id, institutionID)
	p, err := scanProgram(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PGStore) UpdateProgram(ctx context.Context, p *Program) error {
	res, err := s.db.ExecContext(ctx,
		`update programs set name_cs=$3, name_en=$4, description_cs=$5, description_en=$6,
			duration=$7, age_group=$8, min_capacity=$9, max_capacity=$10,
			target_group=$11, price=$12, status=$13
		 where id=$1 and institution_id=$2`,
		p.ID, p.InstitutionID, p.NameCS, p.NameEN, p.DescriptionCS, p.DescriptionEN,
		p.Duration, p.AgeGroup, p.MinCapacity, p.MaxCapacity, p.TargetGroup, p.Price, p.Status,
	)
	if err != nil {
		return err
	}
	return requireMatch(res)
}

func (s *PGStore) DeleteProgram(ctx context.Context, institutionID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from programs where id=$1 and institution_id=$2`, id, institutionID)
	if err != nil {
		return err
	}
	return requireMatch(res)
}

func (s *PGStore) queryPrograms(ctx context.Context, query string, args ...any) ([]*Program, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Program
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanProgram(scan func(...any) error) (*Program, error) {
	var p Program
	err := scan(&p.ID, &p.InstitutionID, &p.NameCS, &p.NameEN, &p.DescriptionCS, &p.DescriptionEN,
		&p.Duration, &p.AgeGroup, &p.MinCapacity, &p.MaxCapacity, &p.TargetGroup, &p.Price, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Bookings -----------------------------------------------------------------

const bookingColumns = `id, institution_id, program_id, date, time_block, school_name, group_type,
	age_or_class, num_students, special_requirements, contact_name, contact_email, contact_phone,
	gdpr_consent, status, created_at`

func (s *PGStore) CreateBooking(ctx context.Context, b *Booking) error {
	if b.ID == "" {
		b.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into bookings(id, institution_id, program_id, date, time_block, school_name,
			group_type, age_or_class, num_students, special_requirements, contact_name,
			contact_email, contact_phone, gdpr_consent, status)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		b.ID, b.InstitutionID, b.ProgramID, b.Date, b.TimeBlock, b.SchoolName,
		b.GroupType, b.AgeOrClass, b.NumStudents, b.SpecialRequirements, b.ContactName,
		b.ContactEmail, b.ContactPhone, b.GDPRConsent, b.Status,
	)
	return err
}

func (s *PGStore) ListBookings(ctx context.Context, institutionID string) ([]*Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+bookingColumns+` from bookings where institution_id=$1 order by created_at desc`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (s *PGStore) FindBooking(ctx context.Context, institutionID, id string) (*Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+bookingColumns+` from bookings where id=$1 and institution_id=$2`, id, institutionID)
	b, err := scanBooking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *PGStore) UpdateBookingStatus(ctx context.Context, institutionID, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`update bookings set status=$3 where id=$1 and institution_id=$2`, id, institutionID, status)
	if err != nil {
		return err
	}
	return requireMatch(res)
}

func scanBooking(scan func(...any) error) (*Booking, error) {
	var b Booking
	err := scan(&b.ID, &b.InstitutionID, &b.ProgramID, &b.Date, &b.TimeBlock, &b.SchoolName,
		&b.GroupType, &b.AgeOrClass, &b.NumStudents, &b.SpecialRequirements, &b.ContactName,
		&b.ContactEmail, &b.ContactPhone, &b.GDPRConsent, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Schools ------------------------------------------------------------------

func (s *PGStore) ListSchools(ctx context.Context, institutionID string) ([]*School, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, institution_id, name, contact_person, email, phone, booking_count, created_at
		 from schools where institution_id=$1 order by created_at`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*School
	for rows.Next() {
		var sc School
		if err := rows.Scan(&sc.ID, &sc.InstitutionID, &sc.Name, &sc.ContactPerson,
			&sc.Email, &sc.Phone, &sc.BookingCount, &sc.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &sc)
	}
	return res, rows.Err()
}

func (s *PGStore) FindSchoolByEmail(ctx context.Context, institutionID, email string) (*School, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, institution_id, name, contact_person, email, phone, booking_count, created_at
		 from schools where institution_id=$1 and lower(email)=lower($2)`, institutionID, email)
	var sc School
	if err := row.Scan(&sc.ID, &sc.InstitutionID, &sc.Name, &sc.ContactPerson,
		&sc.Email, &sc.Phone, &sc.BookingCount, &sc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

func (s *PGStore) CreateSchool(ctx context.Context, sc *School) error {
	if sc.ID == "" {
		sc.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into schools(id, institution_id, name, contact_person, email, phone, booking_count)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		sc.ID, sc.InstitutionID, sc.Name, sc.ContactPerson, sc.Email, sc.Phone, sc.BookingCount,
	)
	return err
}

func (s *PGStore) IncrementSchoolBookings(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update schools set booking_count = booking_count + 1 where id=$1`, id)
	return err
}

// Theme --------------------------------------------------------------------

func (s *PGStore) Theme(ctx context.Context, institutionID string) (*Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`select institution_id, primary_color, secondary_color, accent_color,
			coalesce(logo_url,''), header_style, coalesce(footer_text,'')
		 from theme_settings where institution_id=$1`, institutionID)
	var t Theme
	if err := row.Scan(&t.InstitutionID, &t.PrimaryColor, &t.SecondaryColor, &t.AccentColor,
		&t.LogoURL, &t.HeaderStyle, &t.FooterText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) UpsertTheme(ctx context.Context, t *Theme) error {
	_, err := s.db.ExecContext(ctx,
		`insert into theme_settings(institution_id, primary_color, secondary_color, accent_color,
			logo_url, header_style, footer_text)
		 values($1,$2,$3,$4,nullif($5,''),$6,nullif($7,''))
		 on conflict (institution_id) do update
		 set primary_color=excluded.primary_color,
		     secondary_color=excluded.secondary_color,
		     accent_color=excluded.accent_color,
		     logo_url=excluded.logo_url,
		     header_style=excluded.header_style,
		     footer_text=excluded.footer_text`,
		t.InstitutionID, t.PrimaryColor, t.SecondaryColor, t.AccentColor,
		t.LogoURL, t.HeaderStyle, t.FooterText,
	)
	return err
}

// Dashboard ----------------------------------------------------------------

func (s *PGStore) DashboardCounts(ctx context.Context, institutionID, today string, monthStart time.Time) (int, int, int, error) {
	var todayCount, upcoming, used int
	err := s.db.QueryRowContext(ctx,
		`select
			count(*) filter (where date = $2 and status <> 'cancelled'),
			count(*) filter (where date >= $2 and status <> 'cancelled'),
			count(*) filter (where created_at >= $3)
		 from bookings where institution_id=$1`,
		institutionID, today, monthStart,
	).Scan(&todayCount, &upcoming, &used)
	if err != nil {
		return 0, 0, 0, err
	}
	return todayCount, upcoming, used, nil
}

// requireMatch converts a zero-row mutation into ErrNotFound.
func requireMatch(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
