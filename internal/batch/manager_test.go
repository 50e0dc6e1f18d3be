package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestManagerSharesOneSessionAcrossConcurrentGets(t *testing.T) {
	m := NewManager(time.Hour)
	userID := uuid.New()

	const workers = 16
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			sessions[i] = m.Get(userID)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent first gets must return the same session")
		}
	}
}

func TestManagerClearStartsFreshSession(t *testing.T) {
	m := NewManager(time.Hour)
	userID := uuid.New()

	first := m.Get(userID)
	if err := first.AddManual(Lead{Phone: "+15551110001"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	m.Clear(userID)
	if len(m.Get(userID).Snapshot().Leads) != 0 {
		t.Fatal("clear should drop the session's leads")
	}
}
