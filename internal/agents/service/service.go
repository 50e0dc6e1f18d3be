package service

import (
	"context"
	"strings"

	"callgenie_backend/internal/agents/repository"
	"callgenie_backend/internal/agents/transport"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create registers a new voice agent. When the request does not state whether
// the agent needs a property address per lead, the flag is derived from the
// agent name. Existing deployments named address-collecting agents with a
// "seller" prefix, so that convention seeds the flag.
func (s *Service) Create(ctx context.Context, req transport.CreateAgentRequest) (repository.Agent, error) {
	callerNumber := phone.NormalizeDialable(req.CallerNumber)
	if !phone.IsLikelyValid(callerNumber) {
		return repository.Agent{}, apperr.Validation("caller number is not a valid phone number")
	}

	requiresAddress := strings.Contains(strings.ToLower(req.Name), "seller")
	if req.RequiresAddress != nil {
		requiresAddress = *req.RequiresAddress
	}

	agent, err := s.repo.Create(ctx, repository.Agent{
		ProviderAgentID: strings.TrimSpace(req.ProviderAgentID),
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Voice:           strings.TrimSpace(req.Voice),
		CallerNumber:    callerNumber,
		RequiresAddress: requiresAddress,
	})
	if err != nil {
		return repository.Agent{}, err
	}

	s.log.Info("agent created", "agent_id", agent.ID.String(), "requires_address", agent.RequiresAddress)
	return agent, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Agent, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]repository.Agent, error) {
	return s.repo.List(ctx)
}

// ListForUser returns the active agents assigned to a user.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]repository.Agent, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GetForUser returns the agent only when it is assigned to the user and active.
func (s *Service) GetForUser(ctx context.Context, userID, agentID uuid.UUID) (repository.Agent, error) {
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return repository.Agent{}, err
	}
	if !agent.IsActive {
		return repository.Agent{}, apperr.NotFound("agent not found")
	}

	assigned, err := s.repo.IsAssigned(ctx, userID, agentID)
	if err != nil {
		return repository.Agent{}, err
	}
	if !assigned {
		return repository.Agent{}, apperr.Forbidden("agent not assigned to user")
	}
	return agent, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgentRequest) (repository.Agent, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Agent{}, err
	}

	if req.Name != nil {
		agent.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		agent.Description = strings.TrimSpace(*req.Description)
	}
	if req.Voice != nil {
		agent.Voice = strings.TrimSpace(*req.Voice)
	}
	if req.CallerNumber != nil {
		callerNumber := phone.NormalizeDialable(*req.CallerNumber)
		if !phone.IsLikelyValid(callerNumber) {
			return repository.Agent{}, apperr.Validation("caller number is not a valid phone number")
		}
		agent.CallerNumber = callerNumber
	}
	if req.RequiresAddress != nil {
		agent.RequiresAddress = *req.RequiresAddress
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	return s.repo.Update(ctx, agent)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Assign(ctx context.Context, userID, agentID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, agentID); err != nil {
		return err
	}
	return s.repo.Assign(ctx, userID, agentID)
}

func (s *Service) Unassign(ctx context.Context, userID, agentID uuid.UUID) error {
	return s.repo.Unassign(ctx, userID, agentID)
}
