package auth

import "time"

// Institution is a tenant: a museum, gallery or library running its own
// booking page. All stored data is partitioned by its identifier.
type Institution struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an institution's administrator account. The current design allows
// exactly one user per institution; the role is always "admin".
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	InstitutionID string    `json:"institution_id"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}
