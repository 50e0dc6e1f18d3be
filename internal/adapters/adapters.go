// Package adapters bridges module services onto the narrow ports other
// modules consume. Each adapter translates types; none add behavior.
package adapters

import (
	"context"

	agentservice "callgenie_backend/internal/agents/service"
	authservice "callgenie_backend/internal/auth/service"
	"callgenie_backend/internal/batch"
	"callgenie_backend/internal/calls"
	"callgenie_backend/internal/extraction"
	leadservice "callgenie_backend/internal/leads/service"
	leadtransport "callgenie_backend/internal/leads/transport"

	"github.com/google/uuid"
)

// LeadStore adapts the leads module to batch.LeadStore.
type LeadStore struct {
	svc *leadservice.Service
}

func NewLeadStore(svc *leadservice.Service) *LeadStore {
	return &LeadStore{svc: svc}
}

func (a *LeadStore) List(ctx context.Context, userID uuid.UUID) ([]batch.StoredLead, error) {
	leads, err := a.svc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]batch.StoredLead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, batch.StoredLead{
			ID:          lead.ID.String(),
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}
	return out, nil
}

func (a *LeadStore) BulkCreate(ctx context.Context, userID uuid.UUID, leads []batch.StoredLead) ([]batch.StoredLead, error) {
	inputs := make([]leadtransport.LeadInput, 0, len(leads))
	for _, lead := range leads {
		inputs = append(inputs, leadtransport.LeadInput{
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}

	saved, err := a.svc.BulkCreate(ctx, userID, inputs)
	if err != nil {
		return nil, err
	}

	out := make([]batch.StoredLead, 0, len(saved))
	for _, lead := range saved {
		out = append(out, batch.StoredLead{
			ID:          lead.ID.String(),
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}
	return out, nil
}

func (a *LeadStore) Update(ctx context.Context, userID uuid.UUID, ref string, lead batch.StoredLead) (batch.StoredLead, error) {
	updated, err := a.svc.Update(ctx, userID, ref, leadtransport.UpdateLeadRequest{
		Name:        &lead.Name,
		Email:       &lead.Email,
		PhoneNumber: &lead.PhoneNumber,
		Address:     &lead.Address,
	})
	if err != nil {
		return batch.StoredLead{}, err
	}
	return batch.StoredLead{
		ID:          updated.ID.String(),
		Name:        updated.Name,
		Email:       updated.Email,
		PhoneNumber: updated.PhoneNumber,
		Address:     updated.Address,
	}, nil
}

func (a *LeadStore) Delete(ctx context.Context, userID uuid.UUID, ref string) error {
	return a.svc.Delete(ctx, userID, ref)
}

var _ batch.LeadStore = (*LeadStore)(nil)

// BatchAgentDirectory adapts the agents module to batch.AgentDirectory.
type BatchAgentDirectory struct {
	svc *agentservice.Service
}

func NewBatchAgentDirectory(svc *agentservice.Service) *BatchAgentDirectory {
	return &BatchAgentDirectory{svc: svc}
}

func (a *BatchAgentDirectory) GetForUser(ctx context.Context, userID, agentID uuid.UUID) (batch.AgentInfo, error) {
	agent, err := a.svc.GetForUser(ctx, userID, agentID)
	if err != nil {
		return batch.AgentInfo{}, err
	}
	return batch.AgentInfo{
		ProviderAgentID: agent.ProviderAgentID,
		CallerNumber:    agent.CallerNumber,
		RequiresAddress: agent.RequiresAddress,
	}, nil
}

var _ batch.AgentDirectory = (*BatchAgentDirectory)(nil)

// CallsAgentDirectory adapts the agents module to calls.AgentDirectory.
type CallsAgentDirectory struct {
	svc *agentservice.Service
}

func NewCallsAgentDirectory(svc *agentservice.Service) *CallsAgentDirectory {
	return &CallsAgentDirectory{svc: svc}
}

func (a *CallsAgentDirectory) GetForUser(ctx context.Context, userID, agentID uuid.UUID) (calls.AgentInfo, error) {
	agent, err := a.svc.GetForUser(ctx, userID, agentID)
	if err != nil {
		return calls.AgentInfo{}, err
	}
	return calls.AgentInfo{
		ProviderAgentID: agent.ProviderAgentID,
		CallerNumber:    agent.CallerNumber,
		RequiresAddress: agent.RequiresAddress,
	}, nil
}

var _ calls.AgentDirectory = (*CallsAgentDirectory)(nil)

// Dispatcher adapts the calls module to batch.Dispatcher.
type Dispatcher struct {
	svc *calls.Service
}

func NewDispatcher(svc *calls.Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

func (a *Dispatcher) DispatchBatch(ctx context.Context, userID uuid.UUID, userEmail string, agent batch.AgentInfo, batchName string, leads []batch.StoredLead) (string, error) {
	batchLeads := make([]calls.BatchLead, 0, len(leads))
	for _, lead := range leads {
		batchLeads = append(batchLeads, calls.BatchLead{
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}

	result, err := a.svc.DispatchBatch(ctx, calls.BatchRequest{
		UserID:          userID,
		UserEmail:       userEmail,
		ProviderAgentID: agent.ProviderAgentID,
		CallerNumber:    agent.CallerNumber,
		BatchName:       batchName,
		Leads:           batchLeads,
	})
	if err != nil {
		return "", err
	}
	return result.BatchID, nil
}

var _ batch.Dispatcher = (*Dispatcher)(nil)

// CreditLedger adapts the auth module to calls.CreditLedger.
type CreditLedger struct {
	svc *authservice.Service
}

func NewCreditLedger(svc *authservice.Service) *CreditLedger {
	return &CreditLedger{svc: svc}
}

func (a *CreditLedger) Deduct(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return a.svc.DeductCredits(ctx, userID, amount)
}

func (a *CreditLedger) Refund(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	return a.svc.AddCredits(ctx, userID, amount)
}

var _ calls.CreditLedger = (*CreditLedger)(nil)

// AccountReader adapts the auth module to batch.AccountReader.
type AccountReader struct {
	svc *authservice.Service
}

func NewAccountReader(svc *authservice.Service) *AccountReader {
	return &AccountReader{svc: svc}
}

func (a *AccountReader) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return a.svc.GetCredits(ctx, userID)
}

func (a *AccountReader) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := a.svc.GetMe(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

var _ batch.AccountReader = (*AccountReader)(nil)

// ImageExtractor adapts the extraction module to batch.Extractor.
type ImageExtractor struct {
	extractor *extraction.Extractor
}

// NewImageExtractor wraps the Gemini extractor. A nil extractor (extraction
// disabled) yields a nil adapter so the batch module can report the feature
// as unavailable.
func NewImageExtractor(extractor *extraction.Extractor) *ImageExtractor {
	if extractor == nil {
		return nil
	}
	return &ImageExtractor{extractor: extractor}
}

func (a *ImageExtractor) Extract(ctx context.Context, imageData []byte, mimeType string) ([]batch.RawLead, error) {
	extracted, err := a.extractor.Extract(ctx, imageData, mimeType)
	if err != nil {
		return nil, err
	}
	out := make([]batch.RawLead, 0, len(extracted))
	for _, lead := range extracted {
		out = append(out, batch.RawLead{
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}
	return out, nil
}

var _ batch.Extractor = (*ImageExtractor)(nil)
