// Package calls integrates with the voice call provider. It fires single and
// batch outbound calls, guards scheduled batches against double dispatch, and
// settles credits on success.
package calls

import (
	"context"

	"github.com/google/uuid"
)

// BatchLead is one recipient of a batch call.
type BatchLead struct {
	Name        string
	Email       string
	PhoneNumber string
	Address     string
}

// BatchRequest describes an immediate batch dispatch.
type BatchRequest struct {
	UserID          uuid.UUID
	UserEmail       string
	ProviderAgentID string
	CallerNumber    string
	BatchName       string
	Leads           []BatchLead
}

// BatchResult is the provider's acknowledgement of a batch.
type BatchResult struct {
	BatchID   string
	LeadCount int
}

// SingleRequest describes one outbound call.
type SingleRequest struct {
	UserID          uuid.UUID
	ProviderAgentID string
	CallerNumber    string
	PhoneNumber     string
	Name            string
	Email           string
	Address         string
}

// SingleResult is the provider's acknowledgement of a single call.
type SingleResult struct {
	CallID string
}

// CreditLedger settles call credits. Implemented by the auth module.
type CreditLedger interface {
	Deduct(ctx context.Context, userID uuid.UUID, amount int) (int, error)
	Refund(ctx context.Context, userID uuid.UUID, amount int) (int, error)
}

// AgentInfo is the slice of agent data the calls module needs to dial.
type AgentInfo struct {
	ProviderAgentID string
	CallerNumber    string
	RequiresAddress bool
}

// AgentDirectory resolves an agent assigned to a user. Implemented by the
// agents module.
type AgentDirectory interface {
	GetForUser(ctx context.Context, userID, agentID uuid.UUID) (AgentInfo, error)
}
