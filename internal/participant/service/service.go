// Package service implements location and site administration for the
// participant manager.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"studygate/internal/participant/models"
	"studygate/internal/platform/metrics"
	"studygate/pkg/audit"
	"studygate/pkg/audit/emitter"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/requestcontext"
	"studygate/pkg/sentinel"
)

// Store persists locations and sites.
type Store interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	UpdateLocation(ctx context.Context, loc *models.Location) error
	ListLocations(ctx context.Context) ([]*models.Location, error)
	CreateSite(ctx context.Context, site *models.Site) error
	ListSites(ctx context.Context, studyID string) ([]*models.Site, error)
}

// Auditor is the emitting side of the audit pipeline.
type Auditor interface {
	Emit(ctx context.Context, code audit.Code, opts ...emitter.EventOption)
}

// Service implements the participant manager operations.
type Service struct {
	store   Store
	auditor Auditor
	metrics *metrics.Metrics
}

func NewService(store Store, auditor Auditor, m *metrics.Metrics) *Service {
	return &Service{store: store, auditor: auditor, metrics: m}
}

// CreateLocation registers a new location in active state.
func (s *Service) CreateLocation(ctx context.Context, req models.CreateLocationRequest) (*models.Location, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	loc := &models.Location{
		ID:          uuid.NewString(),
		CustomID:    req.CustomID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.LocationActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a location with this customId already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store location")
	}

	s.auditor.Emit(ctx, audit.NewLocationAdded)
	return loc, nil
}

// UpdateLocation edits a location. A status toggle in the payload switches
// the location between active and decommissioned and emits the matching
// event; otherwise the change is a plain edit.
func (s *Service) UpdateLocation(ctx context.Context, id string, req models.UpdateLocationRequest) (*models.Location, error) {
	loc, err := s.loadLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		loc.Name = req.Name
	}
	if req.Description != "" {
		loc.Description = req.Description
	}

	event := audit.LocationEdited
	if req.Status != nil {
		switch *req.Status {
		case models.StatusToggleDecommission:
			if loc.Status == models.LocationDecommissioned {
				return nil, dErrors.New(dErrors.CodeConflict, "location is already decommissioned")
			}
			loc.Status = models.LocationDecommissioned
			event = audit.LocationDecommissioned
		case models.StatusToggleActivate:
			if loc.Status == models.LocationActive {
				return nil, dErrors.New(dErrors.CodeConflict, "location is already active")
			}
			loc.Status = models.LocationActive
			event = audit.LocationActivated
		default:
			return nil, dErrors.New(dErrors.CodeBadRequest, "status must be 0 or 1")
		}
	}

	loc.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateLocation(ctx, loc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update location")
	}

	s.auditor.Emit(ctx, event)
	return loc, nil
}

// GetLocation returns one location.
func (s *Service) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	return s.loadLocation(ctx, id)
}

// ListLocations returns all locations in creation order.
func (s *Service) ListLocations(ctx context.Context) ([]*models.Location, error) {
	locations, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list locations")
	}
	return locations, nil
}

// AddSite attaches a study to a location. Decommissioned locations do not
// accept new sites, and each (study, location) pair gets one site at most.
func (s *Service) AddSite(ctx context.Context, req models.CreateSiteRequest) (*models.Site, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	loc, err := s.loadLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if loc.Status == models.LocationDecommissioned {
		return nil, dErrors.New(dErrors.CodeConflict, "location is decommissioned")
	}

	site := &models.Site{
		ID:         uuid.NewString(),
		StudyID:    req.StudyID,
		LocationID: req.LocationID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.CreateSite(ctx, site); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a site already exists for this study and location")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store site")
	}

	s.auditor.Emit(ctx, audit.SiteAddedForStudy)
	if s.metrics != nil {
		s.metrics.SitesAdded.Inc()
	}
	return site, nil
}

// ListSites returns the sites of a study.
func (s *Service) ListSites(ctx context.Context, studyID string) ([]*models.Site, error) {
	sites, err := s.store.ListSites(ctx, studyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sites")
	}
	return sites, nil
}

func (s *Service) loadLocation(ctx context.Context, id string) (*models.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load location")
	}
	return loc, nil
}
