// Package service orchestrates study lifecycle operations and emits the
// audit event each operation owes.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"studygate/internal/platform/metrics"
	"studygate/internal/studybuilder/models"
	"studygate/pkg/audit"
	"studygate/pkg/audit/emitter"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/requestcontext"
	"studygate/pkg/sentinel"
)

// Store persists study aggregates.
type Store interface {
	Create(ctx context.Context, study *models.Study) error
	Get(ctx context.Context, id string) (*models.Study, error)
	Update(ctx context.Context, study *models.Study) error
	List(ctx context.Context) ([]*models.Study, error)
}

// Auditor is the emitting side of the audit pipeline.
type Auditor interface {
	Emit(ctx context.Context, code audit.Code, opts ...emitter.EventOption)
}

// Service implements the study builder operations.
type Service struct {
	store   Store
	auditor Auditor
	metrics *metrics.Metrics
}

func NewService(store Store, auditor Auditor, m *metrics.Metrics) *Service {
	return &Service{store: store, auditor: auditor, metrics: m}
}

// Create starts a new study in draft state.
func (s *Service) Create(ctx context.Context, req models.CreateStudyRequest) (*models.Study, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "study name must not be empty")
	}

	now := requestcontext.Now(ctx)
	study := &models.Study{
		ID:          uuid.NewString(),
		CustomID:    req.CustomID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Sponsor:     req.Sponsor,
		Tagline:     req.Tagline,
		AppID:       req.AppID,
		Status:      models.StatusDraft,
		Sections:    make(map[models.Section]bool),
		Resources:   make(map[string]*models.Resource),
		CreatedBy:   requestcontext.UserID(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create study")
	}

	s.auditor.Emit(ctx, audit.NewStudyCreationInitiated)
	return study, nil
}

// SaveDraft persists the study's current content without changing status.
func (s *Service) SaveDraft(ctx context.Context, id string, req models.SaveSectionRequest) (*models.Study, error) {
	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	applySection(study, req)
	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	s.auditor.Emit(ctx, audit.StudySavedInDraftState)
	return study, nil
}

// Get returns a study and emits the view event matching the access mode.
func (s *Service) Get(ctx context.Context, id string, editMode bool) (*models.Study, error) {
	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if editMode {
		s.auditor.Emit(ctx, audit.StudyAccessedInEditMode)
	} else {
		s.auditor.Emit(ctx, audit.StudyViewed)
	}
	return study, nil
}

// GetPublished returns the study if it has been published.
func (s *Service) GetPublished(ctx context.Context, id string) (*models.Study, error) {
	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !study.Published() {
		return nil, dErrors.New(dErrors.CodeNotFound, "study has no published version")
	}

	s.auditor.Emit(ctx, audit.LastPublishedVersionOfStudyViewed)
	return study, nil
}

// List returns all studies. No audit event: listing is not a catalogued
// action.
func (s *Service) List(ctx context.Context) ([]*models.Study, error) {
	studies, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list studies")
	}
	return studies, nil
}

// actionEvents maps each lifecycle action to the event it emits.
func actionEvent(action models.Action) (audit.Code, bool) {
	switch action {
	case models.ActionLaunch:
		return audit.StudyLaunched, true
	case models.ActionPublish:
		return audit.StudyPublishedAsUpcomingStudy, true
	case models.ActionPublishUpdates:
		return audit.UpdatesPublishedToStudy, true
	case models.ActionPause:
		return audit.StudyPaused, true
	case models.ActionResume:
		return audit.StudyResumed, true
	case models.ActionDeactivate:
		return audit.StudyDeactivated, true
	}
	return "", false
}

// Apply performs a lifecycle action on the study.
func (s *Service) Apply(ctx context.Context, id string, action models.Action) (*models.Study, error) {
	code, known := actionEvent(action)
	if !known {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown action: "+string(action))
	}

	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := models.Transition(study.Status, action)
	if !ok {
		return nil, dErrors.New(dErrors.CodeConflict,
			"action "+string(action)+" not allowed in status "+string(study.Status))
	}

	study.Status = next
	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update study status")
	}

	s.auditor.Emit(ctx, code)
	if action == models.ActionLaunch && s.metrics != nil {
		s.metrics.StudiesLaunched.Inc()
	}
	return study, nil
}

// sectionSavedEvent returns the save event for sections that have one.
func sectionSavedEvent(section models.Section) (audit.Code, bool) {
	switch section {
	case models.SectionBasicInfo:
		return audit.StudyBasicInfoSectionSavedOrUpdated, true
	case models.SectionSettings:
		return audit.StudySettingsSavedOrUpdated, true
	}
	return "", false
}

func sectionCompletedEvent(section models.Section) (audit.Code, bool) {
	switch section {
	case models.SectionBasicInfo:
		return audit.StudyBasicInfoSectionMarkedComplete, true
	case models.SectionSettings:
		return audit.StudySettingsMarkedComplete, true
	case models.SectionConsent:
		return audit.StudyConsentSectionsMarkedComplete, true
	case models.SectionNotifications:
		return audit.StudyNotificationsSectionMarkedDone, true
	case models.SectionQuestionnaires:
		return audit.StudyQuestionnairesSectionMarkedDone, true
	case models.SectionResources:
		return audit.StudyResourceSectionMarkedComplete, true
	}
	return "", false
}

// SaveSection stores section content on the study.
func (s *Service) SaveSection(ctx context.Context, id string, section models.Section, req models.SaveSectionRequest) (*models.Study, error) {
	if !models.KnownSection(section) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown section: "+string(section))
	}

	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	applySection(study, req)
	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save section")
	}

	if code, ok := sectionSavedEvent(section); ok {
		s.auditor.Emit(ctx, code)
	}
	return study, nil
}

// CompleteSection marks a section complete.
func (s *Service) CompleteSection(ctx context.Context, id string, section models.Section) (*models.Study, error) {
	code, ok := sectionCompletedEvent(section)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown section: "+string(section))
	}

	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	study.Sections[section] = true
	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete section")
	}

	s.auditor.Emit(ctx, code)
	return study, nil
}

// SaveResource creates or updates a study resource.
func (s *Service) SaveResource(ctx context.Context, id, resourceID string, req models.SaveResourceRequest) (*models.Study, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resource title must not be empty")
	}

	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, ok := study.Resources[resourceID]
	if !ok {
		existing = &models.Resource{ID: resourceID}
		study.Resources[resourceID] = existing
	}
	existing.Title = req.Title
	existing.Content = req.Content

	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save resource")
	}

	s.auditor.Emit(ctx, audit.StudyResourceSavedOrUpdated)
	return study, nil
}

// CompleteResource marks one resource done.
func (s *Service) CompleteResource(ctx context.Context, id, resourceID string) (*models.Study, error) {
	study, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	resource, ok := study.Resources[resourceID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "resource not found")
	}
	resource.Completed = true

	study.Version++
	study.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, study); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete resource")
	}

	s.auditor.Emit(ctx, audit.StudyResourceMarkedCompleted)
	return study, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Study, error) {
	study, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "study not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load study")
	}
	return study, nil
}

func applySection(study *models.Study, req models.SaveSectionRequest) {
	if req.Name != "" {
		study.Name = req.Name
	}
	if req.Description != "" {
		study.Description = req.Description
	}
	if req.Category != "" {
		study.Category = req.Category
	}
	if req.Sponsor != "" {
		study.Sponsor = req.Sponsor
	}
	if req.Tagline != "" {
		study.Tagline = req.Tagline
	}
	if req.Enrollment != "" {
		study.Enrollment = req.Enrollment
	}
	if req.AllowRejoin != nil {
		study.AllowRejoin = *req.AllowRejoin
	}
}
