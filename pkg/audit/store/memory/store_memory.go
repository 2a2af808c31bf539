package memory

import (
	"context"
	"sort"
	"sync"

	"studygate/pkg/audit"
)

// InMemoryStore keeps materialized audit events in memory, indexed by
// correlation ID. Used in tests and local development.
type InMemoryStore struct {
	mu   sync.RWMutex
	seen map[audit.Key]struct{}
	byID map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		seen: make(map[audit.Key]struct{}),
		byID: make(map[string][]audit.Event),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[audit.Key]struct{})
	s.byID = make(map[string][]audit.Event)
}

// Append stores the event unless its logical key was already seen.
func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := event.LogicalKey()
	if _, ok := s.seen[key]; ok {
		return nil
	}
	s.seen[key] = struct{}{}
	s.byID[event.CorrelationID] = append(s.byID[event.CorrelationID], event)
	return nil
}

func (s *InMemoryStore) ListByCorrelation(_ context.Context, correlationID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.byID[correlationID]...), nil
}

// ListRecent returns up to limit events ordered by occurrence time, newest
// first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, events := range s.byID {
		all = append(all, events...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].OccurredAt > all[j].OccurredAt
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
