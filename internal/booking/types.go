package booking

import "time"

// Program is an educational offering an institution publishes on its booking
// page. Names and descriptions are bilingual (Czech/English).
type Program struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	NameCS        string    `json:"name_cs"`
	NameEN        string    `json:"name_en"`
	DescriptionCS string    `json:"description_cs"`
	DescriptionEN string    `json:"description_en"`
	Duration      int       `json:"duration"` // minutes
	AgeGroup      string    `json:"age_group"`
	MinCapacity   int       `json:"min_capacity"`
	MaxCapacity   int       `json:"max_capacity"`
	TargetGroup   string    `json:"target_group"` // "schools" or "public"
	Price         int64     `json:"price"`        // minor units
	Status        string    `json:"status"`       // "active" or "inactive"
	CreatedAt     time.Time `json:"created_at"`
}

// Booking is one group visit request against a program.
type Booking struct {
	ID                  string    `json:"id"`
	InstitutionID       string    `json:"institution_id"`
	ProgramID           string    `json:"program_id"`
	Date                string    `json:"date"`       // ISO date
	TimeBlock           string    `json:"time_block"` // e.g. "09:00-10:30"
	SchoolName          string    `json:"school_name"`
	GroupType           string    `json:"group_type"`
	AgeOrClass          string    `json:"age_or_class"`
	NumStudents         int       `json:"num_students"`
	SpecialRequirements string    `json:"special_requirements"`
	ContactName         string    `json:"contact_name"`
	ContactEmail        string    `json:"contact_email"`
	ContactPhone        string    `json:"contact_phone"`
	GDPRConsent         bool      `json:"gdpr_consent"`
	Status              string    `json:"status"` // pending | confirmed | cancelled
	CreatedAt           time.Time `json:"created_at"`
}

// School is a returning visitor group, keyed per institution by contact email.
type School struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	BookingCount  int       `json:"booking_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Theme holds an institution's public booking page branding.
type Theme struct {
	InstitutionID  string `json:"institution_id"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	LogoURL        string `json:"logo_url,omitempty"`
	HeaderStyle    string `json:"header_style"`
	FooterText     string `json:"footer_text,omitempty"`
}

// DefaultTheme returns the branding applied at registration.
func DefaultTheme(institutionID string) *Theme {
	return &Theme{
		InstitutionID:  institutionID,
		PrimaryColor:   "#1E293B",
		SecondaryColor: "#84A98C",
		AccentColor:    "#E9C46A",
		HeaderStyle:    "light",
	}
}

// DashboardStats summarises booking activity for the admin dashboard.
type DashboardStats struct {
	TodayBookings  int     `json:"today_bookings"`
	UpcomingGroups int     `json:"upcoming_groups"`
	CapacityUsage  float64 `json:"capacity_usage"`
	BookingsUsed   int     `json:"bookings_used"`
	BookingsLimit  int     `json:"bookings_limit"`
}
