package batch

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"callgenie_backend/internal/events"
	"callgenie_backend/internal/scheduler"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads      []StoredLead
	nextID     int
	failCreate error
	updateErr  error
	deleteErr  error
	deleted    []string
	updated    []string
}

func (f *fakeStore) List(ctx context.Context, userID uuid.UUID) ([]StoredLead, error) {
	return append([]StoredLead(nil), f.leads...), nil
}

func (f *fakeStore) BulkCreate(ctx context.Context, userID uuid.UUID, leads []StoredLead) ([]StoredLead, error) {
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	out := make([]StoredLead, 0, len(leads))
	for _, lead := range leads {
		f.nextID++
		lead.ID = "id-" + strconv.Itoa(f.nextID)
		f.leads = append(f.leads, lead)
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, userID uuid.UUID, ref string, lead StoredLead) (StoredLead, error) {
	f.updated = append(f.updated, ref)
	if f.updateErr != nil {
		return StoredLead{}, f.updateErr
	}
	lead.ID = ref
	return lead, nil
}

func (f *fakeStore) Delete(ctx context.Context, userID uuid.UUID, ref string) error {
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

type fakeDirectory struct {
	agent AgentInfo
	err   error
}

func (f *fakeDirectory) GetForUser(ctx context.Context, userID, agentID uuid.UUID) (AgentInfo, error) {
	if f.err != nil {
		return AgentInfo{}, f.err
	}
	return f.agent, nil
}

type fakeDispatcher struct {
	batchID string
	err     error
	calls   int
	leads   []StoredLead
}

func (f *fakeDispatcher) DispatchBatch(ctx context.Context, userID uuid.UUID, userEmail string, agent AgentInfo, batchName string, leads []StoredLead) (string, error) {
	f.calls++
	f.leads = leads
	if f.err != nil {
		return "", f.err
	}
	return f.batchID, nil
}

type fakeScheduler struct {
	payload scheduler.BatchCallDispatchPayload
	runAt   time.Time
	calls   int
}

func (f *fakeScheduler) ScheduleBatchDispatch(ctx context.Context, payload scheduler.BatchCallDispatchPayload, runAt time.Time) error {
	f.calls++
	f.payload = payload
	f.runAt = runAt
	return nil
}

type fakeAccounts struct {
	balance int
	email   string
}

func (f *fakeAccounts) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.balance, nil
}

func (f *fakeAccounts) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.email, nil
}

type fakeExtractor struct {
	leads []RawLead
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, imageData []byte, mimeType string) ([]RawLead, error) {
	return f.leads, f.err
}

type serviceFixture struct {
	svc        *Service
	store      *fakeStore
	directory  *fakeDirectory
	dispatcher *fakeDispatcher
	scheduler  *fakeScheduler
	accounts   *fakeAccounts
	userID     uuid.UUID
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	log := logger.New("development")
	f := &serviceFixture{
		store:      &fakeStore{},
		directory:  &fakeDirectory{agent: AgentInfo{ProviderAgentID: "agent-1", CallerNumber: "+15550000000"}},
		dispatcher: &fakeDispatcher{batchID: "batch-1"},
		scheduler:  &fakeScheduler{},
		accounts:   &fakeAccounts{balance: 7, email: "jane@example.com"},
		userID:     uuid.New(),
	}
	f.svc = NewService(
		NewManager(time.Hour),
		f.store,
		&fakeExtractor{},
		f.directory,
		f.dispatcher,
		f.scheduler,
		f.accounts,
		events.NewInMemoryBus(log),
		log,
	)
	return f
}

func TestAddManualNormalizesAndStores(t *testing.T) {
	f := newFixture(t)

	state, err := f.svc.AddManual(context.Background(), f.userID, RawLead{
		Name:        "Jane",
		Email:       "jane@example.com",
		PhoneNumber: "(555) 111-2222",
	})
	if err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}
	if len(state.Leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(state.Leads))
	}
	lead := state.Leads[0]
	if lead.Phone != "+5551112222" {
		t.Fatalf("expected normalized phone, got %q", lead.Phone)
	}
	if lead.Email != "jane@example.com" {
		t.Fatalf("email should carry into the session, got %q", lead.Email)
	}
	if len(f.store.leads) != 1 || f.store.leads[0].Email != "jane@example.com" {
		t.Fatalf("email should reach the store, got %+v", f.store.leads)
	}
	if lead.ID == "" {
		t.Fatal("stored lead should carry its id")
	}
	if !lead.Selected {
		t.Fatal("manual lead should start selected")
	}

	_, err = f.svc.AddManual(context.Background(), f.userID, RawLead{PhoneNumber: "---"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for undialable phone, got %v", err)
	}
}

func TestConfirmPendingCommitsFreshAndCountsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	session := f.svc.sessions.Get(f.userID)
	session.Stage([]Lead{
		{Phone: "+15551110001"},
		{Phone: "+15551110002", Name: "Bob"},
	}, "file")

	summary, err := f.svc.ConfirmPending(ctx, f.userID)
	if err != nil {
		t.Fatalf("ConfirmPending failed: %v", err)
	}
	if summary.Added != 1 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	state := f.svc.State(f.userID)
	if len(state.Leads) != 2 || len(state.Pending) != 0 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Leads[1].ID == "" || !state.Leads[1].Selected {
		t.Fatalf("committed lead should be stored and selected, got %+v", state.Leads[1])
	}
}

func TestConfirmPendingDiscardsBufferOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session := f.svc.sessions.Get(f.userID)
	session.Stage([]Lead{{Phone: "+15551110001"}}, "file")

	f.store.failCreate = apperr.Internal("store down")
	if _, err := f.svc.ConfirmPending(ctx, f.userID); err == nil {
		t.Fatal("expected error")
	}
	if session.HasPending() {
		t.Fatal("buffer must be discarded on a failed commit")
	}
	if len(f.svc.State(f.userID).Leads) != 0 {
		t.Fatal("nothing may reach the working set when the store write fails")
	}

	// The buffer is gone, so a retry has nothing to confirm.
	f.store.failCreate = nil
	if _, err := f.svc.ConfirmPending(ctx, f.userID); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request after discard, got %v", err)
	}
}

func TestRemoveProceedsWhenStoreAlreadyLostTheLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	f.store.deleteErr = apperr.NotFound("lead not found")
	state, err := f.svc.Remove(ctx, f.userID, 0)
	if err != nil {
		t.Fatalf("Remove should proceed past a missing stored lead: %v", err)
	}
	if len(state.Leads) != 0 {
		t.Fatalf("lead should be gone locally, got %+v", state.Leads)
	}
}

func TestRemoveStopsOnOtherStoreErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	f.store.deleteErr = apperr.Internal("store down")
	if _, err := f.svc.Remove(ctx, f.userID, 0); err == nil {
		t.Fatal("expected error")
	}
	if len(f.svc.State(f.userID).Leads) != 1 {
		t.Fatal("lead must stay when the store delete fails")
	}
}

func TestEditFallsBackToLocalOnMissingStoredLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001", Name: "Jane"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	f.store.updateErr = apperr.NotFound("lead not found")
	newName := "Janet"
	state, localOnly, err := f.svc.Edit(ctx, f.userID, 0, EditRequest{Name: &newName})
	if err != nil {
		t.Fatalf("Edit should accept a local-only change: %v", err)
	}
	if !localOnly {
		t.Fatal("caller must learn the store no longer holds the lead")
	}
	if state.Leads[0].Name != "Janet" {
		t.Fatalf("unexpected name %q", state.Leads[0].Name)
	}
	if state.Leads[0].ID != "" {
		t.Fatal("stale store id should be dropped after a 404")
	}

	// A subsequent edit is session-local and must not report a fallback.
	f.store.updateErr = nil
	older := "Jan"
	if _, localOnly, err = f.svc.Edit(ctx, f.userID, 0, EditRequest{Name: &older}); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if localOnly {
		t.Fatal("an ordinary edit must not report a store miss")
	}
}

func TestEditRejectsPhoneCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}
	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110002"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	collide := "+15551110001"
	_, _, err := f.svc.Edit(ctx, f.userID, 1, EditRequest{PhoneNumber: &collide})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSyncBackfillsFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.leads = []StoredLead{
		{ID: "id-9", PhoneNumber: "+15551110009", Name: "Store Only"},
	}

	state, summary, err := f.svc.Sync(ctx, f.userID)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(state.Leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(state.Leads))
	}
	if state.Leads[0].Selected {
		t.Fatal("store-only lead should arrive unselected")
	}
	if summary.Added != 1 || summary.Enriched != 0 {
		t.Fatalf("unexpected sync summary %+v", summary)
	}
}

func TestSubmitRejectsEmptySelection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.userID, uuid.New(), "batch", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Message != "no leads selected" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSubmitRequiresAddressForSellerAgents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.directory.agent.RequiresAddress = true

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	_, err := f.svc.Submit(ctx, f.userID, uuid.New(), "batch", nil)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Message != "missing address" {
		t.Fatalf("expected missing address error, got %v", err)
	}
	if f.dispatcher.calls != 0 {
		t.Fatal("dispatch must not fire on validation failure")
	}
}

func TestSubmitDispatchesImmediatelyAndClearsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001", Name: "Jane"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	result, err := f.svc.Submit(ctx, f.userID, uuid.New(), "spring push", nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.BatchID != "batch-1" || result.Scheduled {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Credits != 7 {
		t.Fatalf("expected refreshed balance, got %d", result.Credits)
	}
	if f.dispatcher.calls != 1 || len(f.dispatcher.leads) != 1 {
		t.Fatalf("unexpected dispatch %+v", f.dispatcher)
	}
	if len(f.svc.State(f.userID).Leads) != 0 {
		t.Fatal("session should clear after a successful submit")
	}
}

func TestSubmitSkipsDeselectedLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}
	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110002"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}
	if _, err := f.svc.Toggle(f.userID, 0); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	if _, err := f.svc.Submit(ctx, f.userID, uuid.New(), "batch", nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(f.dispatcher.leads) != 1 || f.dispatcher.leads[0].PhoneNumber != "+15551110002" {
		t.Fatalf("only selected leads should dispatch, got %+v", f.dispatcher.leads)
	}
}

func TestSubmitKeepsSessionOnDispatchFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	f.dispatcher.err = apperr.Upstream("provider rejected the batch")
	if _, err := f.svc.Submit(ctx, f.userID, uuid.New(), "batch", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(f.svc.State(f.userID).Leads) != 1 {
		t.Fatal("session must survive a failed dispatch")
	}
}

func TestSubmitSchedulesFutureBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001", Name: "Jane"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	runAt := time.Now().Add(2 * time.Hour)
	result, err := f.svc.Submit(ctx, f.userID, uuid.New(), "evening run", &runAt)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !result.Scheduled || result.DispatchAt == nil || !result.DispatchAt.Equal(runAt) {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.dispatcher.calls != 0 {
		t.Fatal("future batches must not dispatch immediately")
	}
	if f.scheduler.calls != 1 {
		t.Fatal("expected one scheduled dispatch")
	}

	payload := f.scheduler.payload
	if payload.BatchKey == "" {
		t.Fatal("scheduled payload needs a batch key")
	}
	if payload.UserEmail != "jane@example.com" {
		t.Fatalf("unexpected email %q", payload.UserEmail)
	}
	if len(payload.Leads) != 1 || payload.Leads[0].PhoneNumber != "+15551110001" {
		t.Fatalf("unexpected payload leads %+v", payload.Leads)
	}
	if len(f.svc.State(f.userID).Leads) != 0 {
		t.Fatal("session should clear after scheduling")
	}
}

func TestSubmitPastTriggerDispatchesImmediately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddManual(ctx, f.userID, RawLead{PhoneNumber: "+15551110001"}); err != nil {
		t.Fatalf("AddManual failed: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	result, err := f.svc.Submit(ctx, f.userID, uuid.New(), "batch", &past)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Scheduled || f.dispatcher.calls != 1 {
		t.Fatalf("past trigger should dispatch now, got %+v", result)
	}
}
