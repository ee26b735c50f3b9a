package auth

import (
	"context"
	"database/sql"
	"errors"

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

func (s *PGStore) CreateTenant(ctx context.Context, inst *Institution, user *User) error {
	if inst.ID == "" {
		inst.ID = ids.New()
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	user.InstitutionID = inst.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into institutions(id, name, type, country) values($1,$2,$3,$4)`,
		inst.ID, inst.Name, inst.Type, inst.Country,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into users(id, email, password_hash, institution_id, role) values($1,$2,$3,$4,$5)`,
		user.ID, user.Email, user.PasswordHash, user.InstitutionID, user.Role,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, institution_id, role, created_at
		 from users where lower(email)=lower($1)`, email)
	return scanUser(row)
}

func (s *PGStore) FindUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, institution_id, role, created_at
		 from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindInstitution(ctx context.Context, id string) (*Institution, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, type, country, created_at from institutions where id=$1`, id)
	var inst Institution
	if err := row.Scan(&inst.ID, &inst.Name, &inst.Type, &inst.Country, &inst.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.InstitutionID, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
