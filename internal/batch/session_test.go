package batch

import (
	"testing"

	"callgenie_backend/platform/apperr"
)

func TestAddManualRejectsDuplicatePhone(t *testing.T) {
	s := NewSession()
	if err := s.AddManual(Lead{Phone: "+15551112222", Name: "Jane"}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	err := s.AddManual(Lead{Phone: "+15551112222", Name: "Janet"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	state := s.Snapshot()
	if len(state.Leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(state.Leads))
	}
	if !state.Leads[0].Selected {
		t.Fatal("manually added lead should start selected")
	}
}

func TestStageCollapsesInBatchDuplicates(t *testing.T) {
	s := NewSession()
	staged := s.Stage([]Lead{
		{Phone: "+15551112222", Name: "Jane"},
		{Phone: "+15553334444", Name: "Bob"},
		{Phone: "+15551112222", Name: "Jane Again"},
		{Phone: ""},
	}, "file")

	if staged != 2 {
		t.Fatalf("expected 2 staged, got %d", staged)
	}
	state := s.Snapshot()
	if state.Pending[0].Name != "Jane" {
		t.Fatalf("first occurrence should win, got %q", state.Pending[0].Name)
	}
	if state.PendingSource != "file" {
		t.Fatalf("unexpected source %q", state.PendingSource)
	}
}

func TestStageReplacesPreviousBuffer(t *testing.T) {
	s := NewSession()
	s.Stage([]Lead{{Phone: "+15551112222"}}, "file")
	s.Stage([]Lead{{Phone: "+15553334444"}}, "image")

	state := s.Snapshot()
	if len(state.Pending) != 1 || state.Pending[0].Phone != "+15553334444" {
		t.Fatalf("buffer should hold only the latest ingest, got %+v", state.Pending)
	}
	if state.PendingSource != "image" {
		t.Fatalf("unexpected source %q", state.PendingSource)
	}
}

func TestPartitionPendingSeparatesDuplicates(t *testing.T) {
	s := NewSession()
	if err := s.AddManual(Lead{Phone: "+15551112222"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	s.Stage([]Lead{
		{Phone: "+15551112222"},
		{Phone: "+15553334444"},
	}, "file")

	fresh, dups := s.PartitionPending()
	if len(fresh) != 1 || fresh[0].Phone != "+15553334444" {
		t.Fatalf("unexpected fresh set %+v", fresh)
	}
	if dups != 1 {
		t.Fatalf("expected 1 duplicate, got %d", dups)
	}
	if !s.HasPending() {
		t.Fatal("partition must not consume the buffer")
	}
}

func TestCommitPendingAppendsSelectedAndClearsBuffer(t *testing.T) {
	s := NewSession()
	s.Stage([]Lead{{Phone: "+15553334444", Name: "Bob"}}, "file")

	added := s.CommitPending([]Lead{{ID: "abc", Phone: "+15553334444", Name: "Bob"}})
	if added != 1 {
		t.Fatalf("expected 1 added, got %d", added)
	}

	state := s.Snapshot()
	if s.HasPending() {
		t.Fatal("commit should clear the buffer")
	}
	if !state.Leads[0].Selected || state.Leads[0].ID != "abc" {
		t.Fatalf("committed lead should be selected and carry its store id, got %+v", state.Leads[0])
	}
}

func TestCancelPendingDiscardsBuffer(t *testing.T) {
	s := NewSession()
	s.Stage([]Lead{{Phone: "+15553334444"}}, "image")
	s.CancelPending()

	if s.HasPending() {
		t.Fatal("cancel should drop the buffer")
	}
	if len(s.Snapshot().Leads) != 0 {
		t.Fatal("cancel must not touch the working set")
	}
}

func TestRemoveMatchingShiftsPositions(t *testing.T) {
	s := NewSession()
	for _, p := range []string{"+15551110001", "+15551110002", "+15551110003"} {
		if err := s.AddManual(Lead{Phone: p}); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	if err := s.RemoveMatching(1, "+15551110002"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	state := s.Snapshot()
	if len(state.Leads) != 2 || state.Leads[1].Phone != "+15551110003" {
		t.Fatalf("positions should shift down, got %+v", state.Leads)
	}

	// Stale phone means the list changed underneath the caller.
	if err := s.RemoveMatching(0, "+15559999999"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyEditPreservesSelectionAndRejectsCollisions(t *testing.T) {
	s := NewSession()
	if err := s.AddManual(Lead{Phone: "+15551110001"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.AddManual(Lead{Phone: "+15551110002"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.Toggle(1); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	err := s.ApplyEdit(1, Lead{Phone: "+15551110001"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for colliding phone, got %v", err)
	}

	if err := s.ApplyEdit(1, Lead{Phone: "+15551110003", Name: "Edited"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	state := s.Snapshot()
	if state.Leads[1].Selected {
		t.Fatal("edit must preserve the deselected state")
	}
	if state.Leads[1].Name != "Edited" {
		t.Fatalf("unexpected name %q", state.Leads[1].Name)
	}
}

func TestToggleAndToggleAll(t *testing.T) {
	s := NewSession()
	if err := s.AddManual(Lead{Phone: "+15551110001"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.AddManual(Lead{Phone: "+15551110002"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// Everything is selected after manual adds, so toggle-all deselects.
	s.ToggleAll()
	if len(s.Selected()) != 0 {
		t.Fatal("expected none selected")
	}
	s.ToggleAll()
	if len(s.Selected()) != 2 {
		t.Fatal("expected all selected")
	}

	// With a mixed selection toggle-all selects the rest.
	if err := s.Toggle(0); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if len(s.Selected()) != 1 {
		t.Fatalf("expected 1 selected, got %d", len(s.Selected()))
	}
	s.ToggleAll()
	if len(s.Selected()) != 2 {
		t.Fatal("mixed selection should resolve to all selected")
	}

	if err := s.Toggle(9); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for bad index, got %v", err)
	}
}

func TestSyncFromRemoteBackfillsAndAppends(t *testing.T) {
	s := NewSession()
	if err := s.AddManual(Lead{Phone: "+15551110001", Name: "Jane"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	added, enriched := s.SyncFromRemote([]StoredLead{
		{ID: "id-1", PhoneNumber: "+15551110001", Name: "Jane Remote", Email: "jane@example.com", Address: "12 Elm St"},
		{ID: "id-2", PhoneNumber: "+15551110002", Name: "Bob"},
	})
	if added != 1 || enriched != 1 {
		t.Fatalf("expected 1 added and 1 enriched, got %d and %d", added, enriched)
	}

	state := s.Snapshot()
	if len(state.Leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(state.Leads))
	}

	first := state.Leads[0]
	if first.ID != "id-1" {
		t.Fatalf("expected id backfill, got %q", first.ID)
	}
	if first.Name != "Jane" {
		t.Fatalf("session name should win, got %q", first.Name)
	}
	if first.Address != "12 Elm St" {
		t.Fatalf("empty address should fill from store, got %q", first.Address)
	}
	if first.Email != "jane@example.com" {
		t.Fatalf("empty email should fill from store, got %q", first.Email)
	}
	if !first.Selected {
		t.Fatal("existing lead keeps its selection")
	}

	appended := state.Leads[1]
	if appended.ID != "id-2" || appended.Selected {
		t.Fatalf("store-only lead should append unselected, got %+v", appended)
	}
}
