package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &UserRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestUserCreateMapsUniqueViolation(t *testing.T) {
	repo, mock, done := newUserRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("dup@example.com", "hash", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := repo.Create(context.Background(), &domain.User{Email: "dup@example.com", HashedPassword: "hash"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	repo, mock, done := newUserRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, email, hashed_password").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserUpdatePasswordNotFoundWhenNoRows(t *testing.T) {
	repo, mock, done := newUserRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE users").
		WithArgs("missing@example.com", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "missing@example.com", "newhash")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUserCreateScansGeneratedID(t *testing.T) {
	repo, mock, done := newUserRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("new@example.com", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	user := &domain.User{Email: "new@example.com", HashedPassword: "hash"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user.ID = %d, want 7", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
