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

// Lead is a stored contact scoped to its owning user. The phone number is the
// canonical dialable form and is unique per user.
type Lead struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Email       string
	PhoneNumber string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const leadColumns = `id, user_id, name, email, phone_number, address, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Name,
		&l.Email,
		&l.PhoneNumber,
		&l.Address,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found")
	}
	return l, err
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (r *Repository) GetByPhone(ctx context.Context, userID uuid.UUID, phoneNumber string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE user_id = $1 AND phone_number = $2
	`, userID, phoneNumber)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, userID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE user_id = $1 AND id = $2
	`, userID, leadID)
	return scanLead(row)
}

// BulkUpsert inserts the given leads in one transaction. A lead whose phone
// number already exists for the user is updated in place rather than
// duplicated; blank incoming fields never clobber stored values. The whole
// batch commits or none of it does.
func (r *Repository) BulkUpsert(ctx context.Context, userID uuid.UUID, leads []Lead) ([]Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	out := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		row := tx.QueryRow(ctx, `
			INSERT INTO leads (user_id, name, email, phone_number, address)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, phone_number) DO UPDATE
			SET name = COALESCE(NULLIF(EXCLUDED.name, ''), leads.name),
				email = COALESCE(NULLIF(EXCLUDED.email, ''), leads.email),
				address = COALESCE(NULLIF(EXCLUDED.address, ''), leads.address),
				updated_at = now()
			RETURNING `+leadColumns+`
		`, userID, lead.Name, lead.Email, lead.PhoneNumber, lead.Address)

		var saved Lead
		saved, err = scanLead(row)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, lead Lead) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET name = $3, email = $4, phone_number = $5, address = $6, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+leadColumns+`
	`, lead.UserID, lead.ID, lead.Name, lead.Email, lead.PhoneNumber, lead.Address)
	return scanLead(row)
}

func (r *Repository) DeleteByID(ctx context.Context, userID, leadID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM leads WHERE user_id = $1 AND id = $2
	`, userID, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

func (r *Repository) DeleteByPhone(ctx context.Context, userID uuid.UUID, phoneNumber string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM leads WHERE user_id = $1 AND phone_number = $2
	`, userID, phoneNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}
