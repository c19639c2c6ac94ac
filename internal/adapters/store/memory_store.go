package store

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// MemoryStore keeps processed emails in a map for the lifetime of the process
type MemoryStore struct {
	entries     map[string]*core.StoredReply
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger, cleanupFreq time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries:     make(map[string]*core.StoredReply),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	go runCleanup(s, cleanupFreq, s.stopCh, logger)

	return s
}

// Get retrieves a live entry
func (s *MemoryStore) Get(ctx context.Context, emailID string) (*core.StoredReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[emailID]
	if !ok || s.expired(entry) {
		return nil, core.ErrNotFound
	}
	return copyEntry(entry), nil
}

// Upsert stores an entry, keeping the status of a live existing one
func (s *MemoryStore) Upsert(ctx context.Context, entry *core.StoredReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyEntry(entry)
	if existing, ok := s.entries[entry.EmailID]; ok && !s.expired(existing) {
		stored.Status = existing.Status
	}
	if stored.Status == "" {
		stored.Status = core.StatusPending
	}
	s.entries[entry.EmailID] = stored
	return nil
}

// SetStatus updates the status of a live entry
func (s *MemoryStore) SetStatus(ctx context.Context, emailID string, status core.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[emailID]
	if !ok || s.expired(entry) {
		return core.ErrNotFound
	}
	entry.Status = status
	return nil
}

// Delete removes an entry
func (s *MemoryStore) Delete(ctx context.Context, emailID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, emailID)
	return nil
}

// Cleanup removes expired entries
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiredCount := 0
	for key, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, key)
			expiredCount++
		}
	}

	s.logger.Debug("Cleaned up expired replies", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) expired(entry *core.StoredReply) bool {
	return !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt)
}
