package batch

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/google/uuid"
)

// Manager holds one working session per user. Sessions expire after the
// configured idle TTL; touching a session resets its clock.
type Manager struct {
	mu       sync.Mutex
	sessions *gocache.Cache
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{
		sessions: gocache.New(ttl, 10*time.Minute),
		ttl:      ttl,
	}
}

// Get returns the user's session, creating one when absent, and renews its
// expiry. The lock keeps two concurrent first requests from each creating a
// session and losing one of them.
func (m *Manager) Get(userID uuid.UUID) *Session {
	key := userID.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.sessions.Get(key); ok {
		session := cached.(*Session)
		m.sessions.Set(key, session, m.ttl)
		return session
	}

	session := NewSession()
	m.sessions.Set(key, session, m.ttl)
	return session
}

// Clear drops the user's session, typically after a successful submit.
func (m *Manager) Clear(userID uuid.UUID) {
	m.sessions.Delete(userID.String())
}
