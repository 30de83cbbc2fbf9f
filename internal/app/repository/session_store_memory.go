package repository

import (
	"context"
	"sync"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
)

type memoryEntry struct {
	session  model.Session
	deadline time.Time
}

type memorySessionStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemorySessionStore returns an in-process SessionStore. It serves tests
// and single-node development; expired entries are evicted lazily on Get.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{entries: make(map[string]memoryEntry)}
}

func (s *memorySessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if !time.Now().Before(entry.deadline) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	session := entry.session
	return &session, nil
}

func (s *memorySessionStore) Set(ctx context.Context, id string, session *model.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{
		session:  *session,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

func (s *memorySessionStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
