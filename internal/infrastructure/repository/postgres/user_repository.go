package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

// Postgres unique_violation.
const uniqueViolationCode = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
INSERT INTO users (email, hashed_password, created_at)
VALUES ($1,$2,$3)
RETURNING id
`, user.Email, user.HashedPassword, user.CreatedAt)
	if err := row.Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.WrapError(domain.ErrEmailTaken, "create user", err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, hashed_password, created_at
FROM users
WHERE email = $1
`, email)

	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrUserNotFound, "get user by email", err)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE users
SET hashed_password = $2
WHERE email = $1
`, email, hashedPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrUserNotFound, "update password", sql.ErrNoRows)
	}
	return nil
}
