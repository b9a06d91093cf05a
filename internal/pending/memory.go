package pending

import (
	"context"
	"sync"
	"time"

	"github.com/edgard/wooadminbot/internal/metrics"
)

// MemoryStore is a process-local Store. Expired entries are dropped lazily
// on Get and in bulk by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Upload
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a MemoryStore. A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]Upload),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Put(_ context.Context, conversation string, u Upload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[conversation] = u
	metrics.PendingUploads.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, conversation string) (Upload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.entries[conversation]
	if !ok {
		return Upload{}, false, nil
	}
	if s.expired(u) {
		delete(s.entries, conversation)
		metrics.PendingUploads.Set(float64(len(s.entries)))
		return Upload{}, false, nil
	}
	return u, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, conversation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, conversation)
	metrics.PendingUploads.Set(float64(len(s.entries)))
	return nil
}

// Sweep removes every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, u := range s.entries {
		if s.expired(u) {
			delete(s.entries, k)
			removed++
		}
	}
	metrics.PendingUploads.Set(float64(len(s.entries)))
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(u Upload) bool {
	return s.ttl > 0 && s.now().Sub(u.CreatedAt) >= s.ttl
}
