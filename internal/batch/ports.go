// Package batch implements the campaign building workflow: users assemble a
// working set of leads from manual entry, spreadsheets, or photos, reconcile
// it against their stored leads, pick recipients, and submit the batch call.
package batch

import (
	"context"
	"time"

	"callgenie_backend/internal/scheduler"

	"github.com/google/uuid"
)

// StoredLead is the batch module's view of a lead in the lead store.
type StoredLead struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	Address     string
}

// RawLead is an unnormalized lead as it arrives from an ingest source.
type RawLead struct {
	Name        string
	Email       string
	PhoneNumber string
	Address     string
}

// AgentInfo is the slice of agent data batch submission needs.
type AgentInfo struct {
	ProviderAgentID string
	CallerNumber    string
	RequiresAddress bool
}

// LeadStore is the remote lead store the session reconciles against.
// Implemented by an adapter over the leads module.
type LeadStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]StoredLead, error)
	// BulkCreate stores the leads atomically and returns them with IDs.
	BulkCreate(ctx context.Context, userID uuid.UUID, leads []StoredLead) ([]StoredLead, error)
	// Update addresses a lead by ID when known, phone otherwise.
	Update(ctx context.Context, userID uuid.UUID, ref string, lead StoredLead) (StoredLead, error)
	// Delete addresses a lead by ID when known, phone otherwise.
	Delete(ctx context.Context, userID uuid.UUID, ref string) error
}

// Extractor pulls leads out of an uploaded image.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte, mimeType string) ([]RawLead, error)
}

// AgentDirectory resolves an agent assigned to the user.
type AgentDirectory interface {
	GetForUser(ctx context.Context, userID, agentID uuid.UUID) (AgentInfo, error)
}

// Dispatcher fires a batch call right away.
type Dispatcher interface {
	DispatchBatch(ctx context.Context, userID uuid.UUID, userEmail string, agent AgentInfo, batchName string, leads []StoredLead) (batchID string, err error)
}

// Scheduler defers a batch call to a future dispatch time.
type Scheduler interface {
	ScheduleBatchDispatch(ctx context.Context, payload scheduler.BatchCallDispatchPayload, runAt time.Time) error
}

// AccountReader reads account data needed around submission: the credit
// balance for submit responses and the email for scheduled-batch payloads.
type AccountReader interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Email(ctx context.Context, userID uuid.UUID) (string, error)
}
