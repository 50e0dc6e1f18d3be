package service

import (
	"context"
	"errors"
	"strings"

	"callgenie_backend/internal/leads/repository"
	"callgenie_backend/internal/leads/transport"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]repository.Lead, error) {
	return s.repo.ListByUser(ctx, userID)
}

// BulkCreate normalizes and stores a batch of leads. Phones that normalize to
// the empty string are rejected; duplicates inside the request collapse to the
// first occurrence. Storage is all-or-nothing.
func (s *Service) BulkCreate(ctx context.Context, userID uuid.UUID, inputs []transport.LeadInput) ([]repository.Lead, error) {
	seen := make(map[string]struct{}, len(inputs))
	leads := make([]repository.Lead, 0, len(inputs))

	for _, in := range inputs {
		key := phone.NormalizeDialable(in.PhoneNumber)
		if key == "" {
			return nil, apperr.Validation("lead has no dialable phone number")
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		leads = append(leads, repository.Lead{
			Name:        strings.TrimSpace(in.Name),
			Email:       strings.TrimSpace(in.Email),
			PhoneNumber: key,
			Address:     strings.TrimSpace(in.Address),
		})
	}

	saved, err := s.repo.BulkUpsert(ctx, userID, leads)
	if err != nil {
		return nil, err
	}

	s.log.Info("leads stored", "user_id", userID.String(), "count", len(saved))
	return saved, nil
}

// Update modifies a lead addressed by ID or phone number. Changing the phone
// to one held by another lead is a conflict.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, ref string, req transport.UpdateLeadRequest) (repository.Lead, error) {
	lead, err := s.resolve(ctx, userID, ref)
	if err != nil {
		return repository.Lead{}, err
	}

	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		lead.Address = strings.TrimSpace(*req.Address)
	}
	if req.PhoneNumber != nil {
		key := phone.NormalizeDialable(*req.PhoneNumber)
		if key == "" {
			return repository.Lead{}, apperr.Validation("lead has no dialable phone number")
		}
		lead.PhoneNumber = key
	}

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.Lead{}, apperr.Conflict("another lead already uses that phone number")
		}
		return repository.Lead{}, err
	}
	return updated, nil
}

// Delete removes a lead addressed by ID or phone number.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, ref string) error {
	if id, err := uuid.Parse(ref); err == nil {
		return s.repo.DeleteByID(ctx, userID, id)
	}

	key := phone.NormalizeDialable(ref)
	if key == "" {
		return apperr.BadRequest("invalid lead reference")
	}
	return s.repo.DeleteByPhone(ctx, userID, key)
}

func (s *Service) resolve(ctx context.Context, userID uuid.UUID, ref string) (repository.Lead, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.repo.GetByID(ctx, userID, id)
	}

	key := phone.NormalizeDialable(ref)
	if key == "" {
		return repository.Lead{}, apperr.BadRequest("invalid lead reference")
	}
	return s.repo.GetByPhone(ctx, userID, key)
}
