package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session *NegotiationSession
	expires time.Time
}

// MemoryStore is the process-local session store. Entries expire ttl after
// their last save; expired entries are dropped on access or by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]memoryEntry),
	}
}

func (m *MemoryStore) Load(ctx context.Context, customerID int64) (*NegotiationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[customerID]
	if !ok {
		return nil, ErrStateNotFound
	}
	if m.expired(e) {
		delete(m.entries, customerID)
		return nil, ErrStateNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, session *NegotiationSession) error {
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{session: session.Clone()}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[session.CustomerID] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, customerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, customerID)
	return nil
}

// Sweep drops every expired entry and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}
