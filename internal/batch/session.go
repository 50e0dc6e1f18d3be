package batch

import (
	"sync"

	"callgenie_backend/platform/apperr"
)

// Lead is one entry in a working session. Phone holds the canonical dialable
// form and is unique within the session. ID is the lead store's identifier
// and stays empty until the lead has been stored or synced.
type Lead struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phoneNumber"`
	Address  string `json:"address,omitempty"`
	Selected bool   `json:"selected"`
}

// Session is one user's in-progress campaign: the working leads, their
// selection state, and a pending buffer holding the latest file or image
// ingest awaiting review.
type Session struct {
	mu            sync.Mutex
	leads         []Lead
	pending       []Lead
	pendingSource string
}

// State is a copy of the session safe to hand to transport.
type State struct {
	Leads         []Lead
	Pending       []Lead
	PendingSource string
}

func NewSession() *Session {
	return &Session{}
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Leads:         append([]Lead(nil), s.leads...),
		Pending:       append([]Lead(nil), s.pending...),
		PendingSource: s.pendingSource,
	}
}

// AddManual appends one lead. The phone must already be normalized and must
// not collide with a lead in the session. Manually added leads start selected.
func (s *Session) AddManual(lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.Phone == "" {
		return apperr.Validation("lead has no dialable phone number")
	}
	if s.hasPhone(lead.Phone) {
		return apperr.Conflict("duplicate phone number")
	}

	lead.Selected = true
	s.leads = append(s.leads, lead)
	return nil
}

// Stage replaces the pending buffer with a fresh ingest. Duplicates within
// the incoming batch collapse to the first occurrence; duplicates against the
// session survive staging and are partitioned away at confirm time.
func (s *Session) Stage(leads []Lead, source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(leads))
	staged := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.Phone == "" {
			continue
		}
		if _, dup := seen[lead.Phone]; dup {
			continue
		}
		seen[lead.Phone] = struct{}{}
		staged = append(staged, lead)
	}

	s.pending = staged
	s.pendingSource = source
	return len(staged)
}

// PartitionPending splits the buffer into leads new to the session and the
// count of duplicates that will be dropped. The buffer itself is untouched;
// the caller commits or cancels after the store write settles.
func (s *Session) PartitionPending() ([]Lead, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]Lead, 0, len(s.pending))
	dups := 0
	for _, lead := range s.pending {
		if s.hasPhone(lead.Phone) {
			dups++
			continue
		}
		fresh = append(fresh, lead)
	}
	return fresh, dups
}

// CommitPending appends the stored leads (now carrying store IDs) to the
// session, selected, and clears the buffer. Leads whose phone raced into the
// session since partitioning are skipped.
func (s *Session) CommitPending(stored []Lead) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, lead := range stored {
		if lead.Phone == "" || s.hasPhone(lead.Phone) {
			continue
		}
		lead.Selected = true
		s.leads = append(s.leads, lead)
		added++
	}

	s.pending = nil
	s.pendingSource = ""
	return added
}

// CancelPending discards the buffer.
func (s *Session) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.pendingSource = ""
}

// HasPending reports whether an ingest awaits review.
func (s *Session) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// LeadAt returns the lead at the given position.
func (s *Session) LeadAt(index int) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.leads) {
		return Lead{}, apperr.NotFound("no lead at that position")
	}
	return s.leads[index], nil
}

// RemoveMatching removes the lead at index if it still carries the given
// phone. Selection state of the remaining leads is untouched; positions after
// the removed lead shift down by one.
func (s *Session) RemoveMatching(index int, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.leads) || s.leads[index].Phone != phone {
		return apperr.NotFound("no lead at that position")
	}

	s.leads = append(s.leads[:index], s.leads[index+1:]...)
	return nil
}

// ApplyEdit replaces the lead at index. The caller has already verified the
// new phone does not collide.
func (s *Session) ApplyEdit(index int, updated Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.leads) {
		return apperr.NotFound("no lead at that position")
	}
	for i, lead := range s.leads {
		if i != index && lead.Phone == updated.Phone {
			return apperr.Conflict("duplicate phone number")
		}
	}

	updated.Selected = s.leads[index].Selected
	s.leads[index] = updated
	return nil
}

// Toggle flips selection of the lead at index.
func (s *Session) Toggle(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.leads) {
		return apperr.NotFound("no lead at that position")
	}
	s.leads[index].Selected = !s.leads[index].Selected
	return nil
}

// ToggleAll selects every lead, unless all of them are already selected, in
// which case it deselects them all.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	allSelected := len(s.leads) > 0
	for _, lead := range s.leads {
		if !lead.Selected {
			allSelected = false
			break
		}
	}
	for i := range s.leads {
		s.leads[i].Selected = !allSelected
	}
}

// SyncFromRemote reconciles the session with the lead store: session leads
// gain the store's IDs (matched by phone), and stored leads the session has
// never seen are appended unselected. Returns how many leads were appended
// and how many existing leads were enriched with store data.
func (s *Session) SyncFromRemote(remote []StoredLead) (added, enriched int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byPhone := make(map[string]StoredLead, len(remote))
	for _, r := range remote {
		byPhone[r.PhoneNumber] = r
	}

	known := make(map[string]struct{}, len(s.leads))
	for i := range s.leads {
		known[s.leads[i].Phone] = struct{}{}
		r, ok := byPhone[s.leads[i].Phone]
		if !ok {
			continue
		}
		if s.leads[i].ID != r.ID {
			s.leads[i].ID = r.ID
			enriched++
		}
		if s.leads[i].Name == "" {
			s.leads[i].Name = r.Name
		}
		if s.leads[i].Email == "" {
			s.leads[i].Email = r.Email
		}
		if s.leads[i].Address == "" {
			s.leads[i].Address = r.Address
		}
	}

	for _, r := range remote {
		if _, ok := known[r.PhoneNumber]; ok {
			continue
		}
		s.leads = append(s.leads, Lead{
			ID:      r.ID,
			Name:    r.Name,
			Email:   r.Email,
			Phone:   r.PhoneNumber,
			Address: r.Address,
		})
		added++
	}
	return added, enriched
}

// Selected returns the currently selected leads in session order.
func (s *Session) Selected() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if lead.Selected {
			out = append(out, lead)
		}
	}
	return out
}

// hasPhone must be called with the lock held.
func (s *Session) hasPhone(phone string) bool {
	for _, lead := range s.leads {
		if lead.Phone == phone {
			return true
		}
	}
	return false
}
