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

type Agent struct {
	ID              uuid.UUID
	ProviderAgentID string
	Name            string
	Description     string
	Voice           string
	CallerNumber    string
	RequiresAddress bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const agentColumns = `id, provider_agent_id, name, description, voice, caller_number, requires_address, is_active, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(
		&a.ID,
		&a.ProviderAgentID,
		&a.Name,
		&a.Description,
		&a.Voice,
		&a.CallerNumber,
		&a.RequiresAddress,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, apperr.NotFound("agent not found")
	}
	return a, err
}

func (r *Repository) Create(ctx context.Context, a Agent) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (provider_agent_id, name, description, voice, caller_number, requires_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+agentColumns+`
	`, a.ProviderAgentID, a.Name, a.Description, a.Voice, a.CallerNumber, a.RequiresAddress)
	return scanAgent(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE id = $1
	`, id)
	return scanAgent(row)
}

func (r *Repository) GetByProviderAgentID(ctx context.Context, providerAgentID string) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents WHERE provider_agent_id = $1
	`, providerAgentID)
	return scanAgent(row)
}

func (r *Repository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM agents ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAgents(rows)
}

// ListForUser returns active agents assigned to the given user.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.provider_agent_id, a.name, a.description, a.voice, a.caller_number,
			a.requires_address, a.is_active, a.created_at, a.updated_at
		FROM agents a
		JOIN user_agents ua ON ua.agent_id = a.id
		WHERE ua.user_id = $1 AND a.is_active
		ORDER BY a.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAgents(rows)
}

// IsAssigned reports whether the agent is assigned to the user.
func (r *Repository) IsAssigned(ctx context.Context, userID, agentID uuid.UUID) (bool, error) {
	var assigned bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_agents WHERE user_id = $1 AND agent_id = $2
		)
	`, userID, agentID).Scan(&assigned)
	return assigned, err
}

func (r *Repository) Update(ctx context.Context, a Agent) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agents
		SET name = $2, description = $3, voice = $4, caller_number = $5,
			requires_address = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+agentColumns+`
	`, a.ID, a.Name, a.Description, a.Voice, a.CallerNumber, a.RequiresAddress, a.IsActive)
	return scanAgent(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("agent not found")
	}
	return nil
}

func (r *Repository) Assign(ctx context.Context, userID, agentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_agents (user_id, agent_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, agent_id) DO NOTHING
	`, userID, agentID)
	return err
}

func (r *Repository) Unassign(ctx context.Context, userID, agentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_agents WHERE user_id = $1 AND agent_id = $2
	`, userID, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("assignment not found")
	}
	return nil
}

func collectAgents(rows pgx.Rows) ([]Agent, error) {
	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return agents, nil
}
