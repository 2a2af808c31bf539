package verification

import (
	"context"
	"sync"
	"time"

	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/sentinel"
)

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// MemoryStore keeps codes in process memory. Used when Redis is not
// configured, typically local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStore creates a store with the given code lifetime.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

// Save stores the code for the email, replacing any outstanding one.
func (s *MemoryStore) Save(_ context.Context, email, code string) error {
	hash, err := hashCode(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryEntry{hash: hash, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Redeem checks the code and consumes it on success, matching the Redis
// store's semantics.
func (s *MemoryStore) Redeem(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, email)
		return sentinel.ErrExpired
	}
	if !codeMatches(entry.hash, code) {
		return dErrors.New(dErrors.CodeInvalidInput, "verification code does not match")
	}
	delete(s.entries, email)
	return nil
}
