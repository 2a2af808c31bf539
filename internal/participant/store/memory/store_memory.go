package memory

import (
	"context"
	"sort"
	"sync"

	"studygate/internal/participant/models"
	"studygate/pkg/sentinel"
)

// InMemoryStore keeps locations and sites in mutex-guarded maps. Used in
// tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	locations map[string]models.Location
	sites     map[string]models.Site
	pairs     map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		locations: make(map[string]models.Location),
		sites:     make(map[string]models.Site),
		pairs:     make(map[string]struct{}),
	}
}

func pairKey(studyID, locationID string) string {
	return studyID + "\x00" + locationID
}

func (s *InMemoryStore) CreateLocation(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locations[loc.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.locations {
		if existing.CustomID == loc.CustomID {
			return sentinel.ErrConflict
		}
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *InMemoryStore) GetLocation(_ context.Context, id string) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &loc, nil
}

func (s *InMemoryStore) UpdateLocation(_ context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[loc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.locations[loc.ID] = *loc
	return nil
}

func (s *InMemoryStore) ListLocations(_ context.Context) ([]*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		loc := loc
		out = append(out, &loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CreateSite(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(site.StudyID, site.LocationID)
	if _, exists := s.pairs[key]; exists {
		return sentinel.ErrConflict
	}
	s.sites[site.ID] = *site
	s.pairs[key] = struct{}{}
	return nil
}

func (s *InMemoryStore) ListSites(_ context.Context, studyID string) ([]*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Site, 0)
	for _, site := range s.sites {
		if site.StudyID == studyID {
			site := site
			out = append(out, &site)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
