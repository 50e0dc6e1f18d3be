package calls

import (
	"context"

	"callgenie_backend/internal/events"
	"callgenie_backend/internal/scheduler"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"

	"github.com/google/uuid"
)

// provider is the surface of ProviderClient the service depends on.
type provider interface {
	CreateBatchCall(ctx context.Context, req BatchRequest) (BatchResult, error)
	CreatePhoneCall(ctx context.Context, req SingleRequest) (SingleResult, error)
}

type Service struct {
	provider provider
	guard    *DispatchGuard
	ledger   CreditLedger
	bus      events.Bus
	log      *logger.Logger
}

func NewService(p provider, guard *DispatchGuard, ledger CreditLedger, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		provider: p,
		guard:    guard,
		ledger:   ledger,
		bus:      bus,
		log:      log,
	}
}

// DispatchBatch fires a batch call immediately. Credits are deducted up front
// (one per lead) and refunded when the provider rejects the batch.
func (s *Service) DispatchBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if len(req.Leads) == 0 {
		return BatchResult{}, apperr.Validation("no leads selected")
	}

	if _, err := s.ledger.Deduct(ctx, req.UserID, len(req.Leads)); err != nil {
		return BatchResult{}, err
	}

	result, err := s.provider.CreateBatchCall(ctx, req)
	if err != nil {
		if _, refundErr := s.ledger.Refund(ctx, req.UserID, len(req.Leads)); refundErr != nil {
			s.log.Error("credit refund failed after provider rejection",
				"user_id", req.UserID.String(),
				"amount", len(req.Leads),
				"error", refundErr.Error(),
			)
		}
		return BatchResult{}, err
	}

	s.log.Info("batch call dispatched",
		"user_id", req.UserID.String(),
		"batch_id", result.BatchID,
		"leads", result.LeadCount,
	)

	s.bus.Publish(ctx, events.BatchCallCreated{
		BaseEvent: events.NewBaseEvent(),
		UserID:    req.UserID,
		UserEmail: req.UserEmail,
		BatchID:   result.BatchID,
		BatchName: req.BatchName,
		AgentID:   req.ProviderAgentID,
		LeadCount: result.LeadCount,
	})

	return result, nil
}

// DispatchScheduled is invoked by the task worker when a deferred batch comes
// due. The guard ensures queue redeliveries do not dial the same batch twice.
func (s *Service) DispatchScheduled(ctx context.Context, payload scheduler.BatchCallDispatchPayload) error {
	claimed, err := s.guard.Acquire(ctx, payload.BatchKey)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Info("scheduled batch already dispatched", "batch_key", payload.BatchKey)
		return nil
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		// Bad payload, do not retry.
		s.log.Error("scheduled batch has invalid user id", "batch_key", payload.BatchKey)
		return nil
	}

	leads := make([]BatchLead, 0, len(payload.Leads))
	for _, l := range payload.Leads {
		leads = append(leads, BatchLead{
			Name:        l.Name,
			Email:       l.Email,
			PhoneNumber: l.PhoneNumber,
			Address:     l.Address,
		})
	}

	_, err = s.DispatchBatch(ctx, BatchRequest{
		UserID:          userID,
		UserEmail:       payload.UserEmail,
		ProviderAgentID: payload.ProviderAgentID,
		CallerNumber:    payload.CallerNumber,
		BatchName:       payload.BatchName,
		Leads:           leads,
	})
	if err != nil {
		if releaseErr := s.guard.Release(ctx, payload.BatchKey); releaseErr != nil {
			s.log.Error("guard release failed", "batch_key", payload.BatchKey, "error", releaseErr.Error())
		}
		return err
	}
	return nil
}

// DispatchSingle fires one outbound call, costing one credit.
func (s *Service) DispatchSingle(ctx context.Context, req SingleRequest) (SingleResult, error) {
	if _, err := s.ledger.Deduct(ctx, req.UserID, 1); err != nil {
		return SingleResult{}, err
	}

	result, err := s.provider.CreatePhoneCall(ctx, req)
	if err != nil {
		if _, refundErr := s.ledger.Refund(ctx, req.UserID, 1); refundErr != nil {
			s.log.Error("credit refund failed after provider rejection",
				"user_id", req.UserID.String(),
				"error", refundErr.Error(),
			)
		}
		return SingleResult{}, err
	}

	s.bus.Publish(ctx, events.SingleCallCreated{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      req.UserID,
		CallID:      result.CallID,
		AgentID:     req.ProviderAgentID,
		PhoneNumber: req.PhoneNumber,
	})

	return result, nil
}

// Compile-time check that Service satisfies the worker's dispatcher port.
var _ scheduler.BatchDispatcher = (*Service)(nil)
