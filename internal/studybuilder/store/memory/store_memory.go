package memory

import (
	"context"
	"sort"
	"sync"

	"studygate/internal/studybuilder/models"
	"studygate/pkg/sentinel"
)

// InMemoryStore keeps studies in a mutex-guarded map. Used in tests and
// local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	studies map[string]*models.Study
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{studies: make(map[string]*models.Study)}
}

func (s *InMemoryStore) Create(_ context.Context, study *models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.studies[study.ID]; exists {
		return sentinel.ErrConflict
	}
	s.studies[study.ID] = study.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	study, ok := s.studies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return study.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, study *models.Study) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studies[study.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.studies[study.ID] = study.Clone()
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Study, 0, len(s.studies))
	for _, study := range s.studies {
		out = append(out, study.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
