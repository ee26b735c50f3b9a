package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	// CreateTenant persists a new institution together with its admin user in
	// one transaction, so no partial institution-without-user state is ever
	// observable to later reads.
	CreateTenant(ctx context.Context, inst *Institution, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUser(ctx context.Context, id string) (*User, error)
	FindInstitution(ctx context.Context, id string) (*Institution, error)
}
