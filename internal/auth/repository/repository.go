package repository

import (
	"context"
	"errors"
	"time"

	"callgenie_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Credits      int
	Verified     bool
	OTPHash      *string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, name, email, password_hash, role, credits, is_verified, otp_hash, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Credits,
		&user.Verified,
		&user.OTPHash,
		&user.OTPExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound("user not found")
	}
	return user, err
}

func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string, credits int) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, credits)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns+`
	`, name, email, passwordHash, credits)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, userID)
	return scanUser(row)
}

func (r *Repository) SetOTP(ctx context.Context, userID uuid.UUID, otpHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET otp_hash = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`, userID, otpHash, expiresAt)
	return err
}

func (r *Repository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET is_verified = true, otp_hash = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`, userID)
	return err
}

func (r *Repository) GetCredits(ctx context.Context, userID uuid.UUID) (int, error) {
	var credits int
	err := r.pool.QueryRow(ctx, `
		SELECT credits FROM users WHERE id = $1
	`, userID).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("user not found")
	}
	return credits, err
}

// DeductCredits atomically subtracts the given amount, failing when the
// balance would go negative.
func (r *Repository) DeductCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	var remaining int
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET credits = credits - $2, updated_at = now()
		WHERE id = $1 AND credits >= $2
		RETURNING credits
	`, userID, amount).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Forbidden("insufficient credits")
	}
	return remaining, err
}

func (r *Repository) AddCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET credits = credits + $2, updated_at = now()
		WHERE id = $1
		RETURNING credits
	`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("user not found")
	}
	return balance, err
}
