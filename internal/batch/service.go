package batch

import (
	"context"
	"io"
	"strings"
	"time"

	"callgenie_backend/internal/batch/ingest"
	"callgenie_backend/internal/events"
	"callgenie_backend/internal/scheduler"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"
	"callgenie_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	sourceFile  = "file"
	sourceImage = "image"
)

// IngestSummary reports what an upload staged into the pending buffer.
type IngestSummary struct {
	Staged      int
	RowsSkipped int
}

// ConfirmSummary reports what a pending-buffer confirm committed.
type ConfirmSummary struct {
	Added      int
	Duplicates int
}

// SyncSummary reports what a store sync changed in the session.
type SyncSummary struct {
	Added    int
	Enriched int
}

// SubmitResult is the outcome of a batch submission.
type SubmitResult struct {
	BatchID    string
	Scheduled  bool
	DispatchAt *time.Time
	Credits    int
}

// EditRequest carries the fields to change on a session lead. Nil means keep.
type EditRequest struct {
	Name        *string
	Email       *string
	PhoneNumber *string
	Address     *string
}

type Service struct {
	sessions   *Manager
	store      LeadStore
	extractor  Extractor
	directory  AgentDirectory
	dispatcher Dispatcher
	scheduler  Scheduler
	accounts   AccountReader
	bus        events.Bus
	log        *logger.Logger
}

func NewService(
	sessions *Manager,
	store LeadStore,
	extractor Extractor,
	directory AgentDirectory,
	dispatcher Dispatcher,
	sched Scheduler,
	accounts AccountReader,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		sessions:   sessions,
		store:      store,
		extractor:  extractor,
		directory:  directory,
		dispatcher: dispatcher,
		scheduler:  sched,
		accounts:   accounts,
		bus:        bus,
		log:        log,
	}
}

// State returns the user's current session.
func (s *Service) State(userID uuid.UUID) State {
	return s.sessions.Get(userID).Snapshot()
}

// AddManual stores a hand-entered lead and adds it to the session selected.
// The store write happens first; a lead that cannot be stored is not added.
func (s *Service) AddManual(ctx context.Context, userID uuid.UUID, raw RawLead) (State, error) {
	session := s.sessions.Get(userID)

	lead := normalizeRaw(raw)
	if lead.Phone == "" {
		return State{}, apperr.Validation("lead has no dialable phone number")
	}
	for _, existing := range session.Snapshot().Leads {
		if existing.Phone == lead.Phone {
			return State{}, apperr.Conflict("duplicate phone number")
		}
	}

	stored, err := s.store.BulkCreate(ctx, userID, []StoredLead{{
		Name:        lead.Name,
		Email:       lead.Email,
		PhoneNumber: lead.Phone,
		Address:     lead.Address,
	}})
	if err != nil {
		return State{}, err
	}
	if len(stored) == 1 {
		lead.ID = stored[0].ID
	}

	if err := session.AddManual(lead); err != nil {
		return State{}, err
	}
	return session.Snapshot(), nil
}

// IngestFile parses a spreadsheet upload into the pending buffer.
func (s *Service) IngestFile(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (IngestSummary, error) {
	result, err := ingest.Parse(filename, r)
	if err != nil {
		return IngestSummary{}, err
	}

	staged := s.sessions.Get(userID).Stage(normalizeAll(fromRows(result.Leads)), sourceFile)
	s.log.Info("file ingest staged",
		"user_id", userID.String(),
		"file", filename,
		"staged", staged,
		"skipped", result.RowsSkipped,
	)
	return IngestSummary{Staged: staged, RowsSkipped: result.RowsSkipped}, nil
}

// IngestImage extracts leads from an uploaded image into the pending buffer.
func (s *Service) IngestImage(ctx context.Context, userID uuid.UUID, imageData []byte, mimeType string) (IngestSummary, error) {
	if s.extractor == nil {
		return IngestSummary{}, apperr.BadRequest("image ingestion is not available")
	}

	raw, err := s.extractor.Extract(ctx, imageData, mimeType)
	if err != nil {
		return IngestSummary{}, err
	}

	staged := s.sessions.Get(userID).Stage(normalizeAll(raw), sourceImage)
	s.log.Info("image ingest staged", "user_id", userID.String(), "staged", staged)
	return IngestSummary{Staged: staged}, nil
}

// ConfirmPending commits the reviewed buffer: leads new to the session are
// stored in one atomic write and appended selected, duplicates are dropped.
// The buffer is consumed either way; a failed store write discards it and
// surfaces the error, leaving the working set untouched.
func (s *Service) ConfirmPending(ctx context.Context, userID uuid.UUID) (ConfirmSummary, error) {
	session := s.sessions.Get(userID)
	if !session.HasPending() {
		return ConfirmSummary{}, apperr.BadRequest("nothing to confirm")
	}

	fresh, dups := session.PartitionPending()
	if len(fresh) == 0 {
		session.CancelPending()
		return ConfirmSummary{Duplicates: dups}, nil
	}

	toStore := make([]StoredLead, 0, len(fresh))
	for _, lead := range fresh {
		toStore = append(toStore, StoredLead{
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.Phone,
			Address:     lead.Address,
		})
	}

	stored, err := s.store.BulkCreate(ctx, userID, toStore)
	if err != nil {
		session.CancelPending()
		return ConfirmSummary{}, err
	}

	committed := make([]Lead, 0, len(stored))
	for _, r := range stored {
		committed = append(committed, Lead{
			ID:      r.ID,
			Name:    r.Name,
			Email:   r.Email,
			Phone:   r.PhoneNumber,
			Address: r.Address,
		})
	}

	added := session.CommitPending(committed)
	return ConfirmSummary{Added: added, Duplicates: dups}, nil
}

// CancelPending discards the reviewed buffer.
func (s *Service) CancelPending(userID uuid.UUID) {
	s.sessions.Get(userID).CancelPending()
}

// Remove deletes the session lead at the given position and its stored
// counterpart. A lead the store no longer has is still removed locally.
func (s *Service) Remove(ctx context.Context, userID uuid.UUID, index int) (State, error) {
	session := s.sessions.Get(userID)

	lead, err := session.LeadAt(index)
	if err != nil {
		return State{}, err
	}

	ref := lead.ID
	if ref == "" {
		ref = lead.Phone
	}
	if err := s.store.Delete(ctx, userID, ref); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return State{}, err
	}

	if err := session.RemoveMatching(index, lead.Phone); err != nil {
		return State{}, err
	}
	return session.Snapshot(), nil
}

// Edit updates the session lead at the given position. The store is updated
// by ID when known, phone otherwise; a lead missing from the store keeps the
// edit locally, sheds its stale ID, and reports localOnly so the caller can
// tell the user.
func (s *Service) Edit(ctx context.Context, userID uuid.UUID, index int, req EditRequest) (state State, localOnly bool, err error) {
	session := s.sessions.Get(userID)

	lead, err := session.LeadAt(index)
	if err != nil {
		return State{}, false, err
	}

	updated := lead
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.PhoneNumber != nil {
		key := phone.NormalizeDialable(*req.PhoneNumber)
		if key == "" {
			return State{}, false, apperr.Validation("lead has no dialable phone number")
		}
		updated.Phone = key
	}

	ref := lead.ID
	if ref == "" {
		ref = lead.Phone
	}
	_, storeErr := s.store.Update(ctx, userID, ref, StoredLead{
		Name:        updated.Name,
		Email:       updated.Email,
		PhoneNumber: updated.Phone,
		Address:     updated.Address,
	})
	if storeErr != nil {
		if !apperr.Is(storeErr, apperr.KindNotFound) {
			return State{}, false, storeErr
		}
		// The store lost this lead; keep editing locally.
		updated.ID = ""
		localOnly = true
	}

	if err := session.ApplyEdit(index, updated); err != nil {
		return State{}, false, err
	}
	return session.Snapshot(), localOnly, nil
}

// Toggle flips selection of one lead.
func (s *Service) Toggle(userID uuid.UUID, index int) (State, error) {
	session := s.sessions.Get(userID)
	if err := session.Toggle(index); err != nil {
		return State{}, err
	}
	return session.Snapshot(), nil
}

// ToggleAll selects every session lead, or deselects them all when every
// lead is already selected.
func (s *Service) ToggleAll(userID uuid.UUID) State {
	session := s.sessions.Get(userID)
	session.ToggleAll()
	return session.Snapshot()
}

// Sync reconciles the session with the lead store.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID) (State, SyncSummary, error) {
	remote, err := s.store.List(ctx, userID)
	if err != nil {
		return State{}, SyncSummary{}, err
	}

	session := s.sessions.Get(userID)
	added, enriched := session.SyncFromRemote(remote)
	return session.Snapshot(), SyncSummary{Added: added, Enriched: enriched}, nil
}

// Discard drops the user's session entirely, leads and buffer alike.
func (s *Service) Discard(userID uuid.UUID) {
	s.sessions.Clear(userID)
}

// Submit validates the selection and either dispatches the batch immediately
// or schedules it for a future trigger time. A successful submit clears the
// session and returns the refreshed credit balance.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, agentID uuid.UUID, batchName string, triggerAt *time.Time) (SubmitResult, error) {
	agent, err := s.directory.GetForUser(ctx, userID, agentID)
	if err != nil {
		return SubmitResult{}, err
	}

	session := s.sessions.Get(userID)
	selected := session.Selected()
	if len(selected) == 0 {
		return SubmitResult{}, apperr.Validation("no leads selected")
	}
	if agent.RequiresAddress {
		for _, lead := range selected {
			if lead.Address == "" {
				return SubmitResult{}, apperr.Validation("missing address")
			}
		}
	}

	email, err := s.accounts.Email(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}

	leads := make([]StoredLead, 0, len(selected))
	for _, lead := range selected {
		leads = append(leads, StoredLead{
			ID:          lead.ID,
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.Phone,
			Address:     lead.Address,
		})
	}

	result := SubmitResult{}
	now := time.Now()

	if triggerAt != nil && triggerAt.After(now) {
		if s.scheduler == nil {
			return SubmitResult{}, apperr.BadRequest("scheduled batches are not available")
		}

		payload := scheduler.BatchCallDispatchPayload{
			BatchKey:        uuid.NewString(),
			UserID:          userID.String(),
			UserEmail:       email,
			ProviderAgentID: agent.ProviderAgentID,
			CallerNumber:    agent.CallerNumber,
			BatchName:       batchName,
			Leads:           toDispatchLeads(leads),
		}
		if err := s.scheduler.ScheduleBatchDispatch(ctx, payload, *triggerAt); err != nil {
			return SubmitResult{}, err
		}

		dispatchAt := *triggerAt
		result.Scheduled = true
		result.DispatchAt = &dispatchAt

		s.bus.Publish(ctx, events.BatchCallCreated{
			BaseEvent:  events.NewBaseEvent(),
			UserID:     userID,
			UserEmail:  email,
			BatchName:  batchName,
			AgentID:    agent.ProviderAgentID,
			LeadCount:  len(leads),
			Scheduled:  true,
			DispatchAt: &dispatchAt,
		})
	} else {
		batchID, err := s.dispatcher.DispatchBatch(ctx, userID, email, agent, batchName, leads)
		if err != nil {
			return SubmitResult{}, err
		}
		result.BatchID = batchID
	}

	s.sessions.Clear(userID)

	credits, err := s.accounts.Balance(ctx, userID)
	if err != nil {
		s.log.Error("credit balance read failed after submit", "user_id", userID.String(), "error", err.Error())
	} else {
		result.Credits = credits
	}

	return result, nil
}

func normalizeRaw(raw RawLead) Lead {
	return Lead{
		Name:    strings.TrimSpace(raw.Name),
		Email:   strings.TrimSpace(raw.Email),
		Phone:   phone.NormalizeDialable(raw.PhoneNumber),
		Address: strings.TrimSpace(raw.Address),
	}
}

func fromRows(rows []ingest.Row) []RawLead {
	out := make([]RawLead, 0, len(rows))
	for _, row := range rows {
		out = append(out, RawLead{
			Name:        row.Name,
			Email:       row.Email,
			PhoneNumber: row.PhoneNumber,
			Address:     row.Address,
		})
	}
	return out
}

func normalizeAll(raws []RawLead) []Lead {
	out := make([]Lead, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalizeRaw(raw))
	}
	return out
}

func toDispatchLeads(leads []StoredLead) []scheduler.DispatchLead {
	out := make([]scheduler.DispatchLead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, scheduler.DispatchLead{
			Name:        lead.Name,
			Email:       lead.Email,
			PhoneNumber: lead.PhoneNumber,
			Address:     lead.Address,
		})
	}
	return out
}
