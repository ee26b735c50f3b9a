package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGCreateTenantSingleTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into institutions").
		WithArgs(sqlmock.AnyArg(), "Gallery X", "gallery", "CZ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "a@x.cz", sqlmock.AnyArg(), sqlmock.AnyArg(), "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	inst := &Institution{Name: "Gallery X", Type: "gallery", Country: "CZ"}
	user := &User{Email: "a@x.cz", PasswordHash: "hash", Role: "admin"}
	if err := store.CreateTenant(context.Background(), inst, user); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if user.InstitutionID != inst.ID || inst.ID == "" {
		t.Fatalf("user not bound to institution: %q vs %q", user.InstitutionID, inst.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCreateTenantRollsBackOnUserInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("insert into institutions").
		WithArgs(sqlmock.AnyArg(), "Gallery X", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into users").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	store := NewPGStore(db)
	err = store.CreateTenant(context.Background(),
		&Institution{Name: "Gallery X"},
		&User{Email: "a@x.cz", PasswordHash: "hash", Role: "admin"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGFindUserByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select id, email, password_hash, institution_id, role, created_at").
		WithArgs("a@x.cz").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "email", "password_hash", "institution_id", "role", "created_at"}).
			AddRow("user-1", "a@x.cz", "hash", "inst-1", "admin", now))

	store := NewPGStore(db)
	user, err := store.FindUserByEmail(context.Background(), "a@x.cz")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if user.ID != "user-1" || user.InstitutionID != "inst-1" {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("select id, email, password_hash, institution_id, role, created_at").
		WithArgs("nobody@x.cz").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "email", "password_hash", "institution_id", "role", "created_at"}))
	if _, err := store.FindUserByEmail(context.Background(), "nobody@x.cz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
