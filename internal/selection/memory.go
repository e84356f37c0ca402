package selection

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the Store used when no Redis URL is configured. Expired
// records are dropped by Run.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]memoryEntry
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store; ttl <= 0 keeps records forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, records: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{rec: rec}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.records[rec.SessionID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Record, error) {
	s.mu.RLock()
	entry, ok := s.records[sessionID]
	s.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)) {
		return Record{}, notFound(sessionID)
	}
	return entry.rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

// Run drops expired records every ttl/2 (at least once a second) until ctx
// is done. It returns immediately when records never expire.
func (s *MemoryStore) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}

	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired records and reports how many were removed.
func (s *MemoryStore) sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.records {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}
