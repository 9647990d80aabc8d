package sessioncache

import (
	"context"
	"sync"
	"time"

	"github.com/lexhq/lex-backend/internal/model/session"
)

// MemoryStore is an in-process Store with the same TTL semantics as the
// Redis store. It backs tests and deployments without a cache backend; state
// is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memoryEntry
}

type memoryEntry struct {
	session   session.UserSession
	expiresAt time.Time
}

// NewMemoryStore creates the in-memory store. ttl <= 0 selects DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
	}
}

// Get returns the user's session, or a fresh default when absent or expired.
func (s *MemoryStore) Get(_ context.Context, userID string) (session.UserSession, error) {
	s.mu.RLock()
	entry, ok := s.data[keyPrefix+userID]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return session.New(), nil
	}
	return entry.session, nil
}

// Put overwrites the whole record and resets the rolling TTL.
func (s *MemoryStore) Put(_ context.Context, userID string, sess session.UserSession) error {
	sess.Version = session.SchemaVersion
	sess.Timestamp = time.Now().UTC()

	s.mu.Lock()
	s.data[keyPrefix+userID] = memoryEntry{
		session:   sess,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}
