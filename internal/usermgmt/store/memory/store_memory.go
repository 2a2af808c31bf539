package memory

import (
	"context"
	"strings"
	"sync"

	"studygate/internal/usermgmt/models"
	"studygate/pkg/sentinel"
)

// InMemoryStore keeps users keyed by lower-cased email. Used in tests and
// local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*models.User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byEmail: make(map[string]*models.User)}
}

func key(email string) string {
	return strings.ToLower(email)
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[key(user.Email)]; exists {
		return sentinel.ErrConflict
	}
	clone := *user
	s.byEmail[key(user.Email)] = &clone
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byEmail[key(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *InMemoryStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key(user.Email)]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *user
	s.byEmail[key(user.Email)] = &clone
	return nil
}
