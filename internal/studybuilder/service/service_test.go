package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/internal/studybuilder/models"
	"studygate/internal/studybuilder/store/memory"
	"studygate/pkg/audit"
	"studygate/pkg/audit/emitter"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/requestcontext"
)

// codeAuditor records emitted codes without a delivery channel.
type codeAuditor struct {
	codes []audit.Code
}

func (a *codeAuditor) Emit(_ context.Context, code audit.Code, _ ...emitter.EventOption) {
	a.codes = append(a.codes, code)
}

func newService() (*Service, *memory.InMemoryStore, *codeAuditor) {
	store := memory.NewInMemoryStore()
	auditor := &codeAuditor{}
	return NewService(store, auditor, nil), store, auditor
}

func testCtx() context.Context {
	ctx := requestcontext.WithCorrelationID(context.Background(), "corr-test")
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func seedStudy(t *testing.T, store *memory.InMemoryStore, id string, status models.Status) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &models.Study{
		ID:        id,
		Name:      "Diabetes Prevention",
		Status:    status,
		Sections:  make(map[models.Section]bool),
		Resources: make(map[string]*models.Resource),
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestCreate_StartsDraftAndEmits(t *testing.T) {
	svc, _, auditor := newService()

	study, err := svc.Create(testCtx(), models.CreateStudyRequest{Name: "Sleep Study"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusDraft, study.Status)
	assert.NotEmpty(t, study.ID)
	assert.Equal(t, []audit.Code{audit.NewStudyCreationInitiated}, auditor.codes)
}

func TestCreate_EmptyNameRejected(t *testing.T) {
	svc, _, auditor := newService()

	_, err := svc.Create(testCtx(), models.CreateStudyRequest{Name: "  "})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	assert.Empty(t, auditor.codes)
}

func TestApply_TransitionsAndEvents(t *testing.T) {
	cases := []struct {
		name   string
		from   models.Status
		action models.Action
		want   models.Status
		code   audit.Code
	}{
		{"publish from draft", models.StatusDraft, models.ActionPublish, models.StatusPreLaunch, audit.StudyPublishedAsUpcomingStudy},
		{"launch from draft", models.StatusDraft, models.ActionLaunch, models.StatusActive, audit.StudyLaunched},
		{"launch from pre-launch", models.StatusPreLaunch, models.ActionLaunch, models.StatusActive, audit.StudyLaunched},
		{"publish updates while active", models.StatusActive, models.ActionPublishUpdates, models.StatusActive, audit.UpdatesPublishedToStudy},
		{"pause active", models.StatusActive, models.ActionPause, models.StatusPaused, audit.StudyPaused},
		{"resume paused", models.StatusPaused, models.ActionResume, models.StatusActive, audit.StudyResumed},
		{"deactivate active", models.StatusActive, models.ActionDeactivate, models.StatusDeactivated, audit.StudyDeactivated},
		{"deactivate paused", models.StatusPaused, models.ActionDeactivate, models.StatusDeactivated, audit.StudyDeactivated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, auditor := newService()
			seedStudy(t, store, "study-1", tc.from)

			study, err := svc.Apply(testCtx(), "study-1", tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.want, study.Status)
			assert.Equal(t, []audit.Code{tc.code}, auditor.codes)
		})
	}
}

func TestApply_IllegalTransitionConflicts(t *testing.T) {
	cases := []struct {
		name   string
		from   models.Status
		action models.Action
	}{
		{"launch deactivated", models.StatusDeactivated, models.ActionLaunch},
		{"pause draft", models.StatusDraft, models.ActionPause},
		{"resume active", models.StatusActive, models.ActionResume},
		{"publish active", models.StatusActive, models.ActionPublish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, auditor := newService()
			seedStudy(t, store, "study-1", tc.from)

			_, err := svc.Apply(testCtx(), "study-1", tc.action)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
			assert.Empty(t, auditor.codes, "no event on a rejected transition")

			study, err := store.Get(context.Background(), "study-1")
			require.NoError(t, err)
			assert.Equal(t, tc.from, study.Status, "status unchanged")
		})
	}
}

func TestApply_UnknownActionBadRequest(t *testing.T) {
	svc, store, _ := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.Apply(testCtx(), "study-1", "destroyId")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestApply_MissingStudyNotFound(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Apply(testCtx(), "nope", models.ActionLaunch)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGet_EmitsViewOrEditEvent(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.Get(testCtx(), "study-1", false)
	require.NoError(t, err)
	_, err = svc.Get(testCtx(), "study-1", true)
	require.NoError(t, err)

	assert.Equal(t, []audit.Code{audit.StudyViewed, audit.StudyAccessedInEditMode}, auditor.codes)
}

func TestGetPublished_DraftHasNoPublishedVersion(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.GetPublished(testCtx(), "study-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, auditor.codes)
}

func TestGetPublished_ActiveStudy(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusActive)

	_, err := svc.GetPublished(testCtx(), "study-1")
	require.NoError(t, err)
	assert.Equal(t, []audit.Code{audit.LastPublishedVersionOfStudyViewed}, auditor.codes)
}

func TestSaveSection_EventsPerSection(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.SaveSection(testCtx(), "study-1", models.SectionBasicInfo,
		models.SaveSectionRequest{Description: "A 12-week study"})
	require.NoError(t, err)
	_, err = svc.SaveSection(testCtx(), "study-1", models.SectionSettings,
		models.SaveSectionRequest{Enrollment: "open"})
	require.NoError(t, err)
	// Consent has no save event in the catalog; the write still succeeds.
	_, err = svc.SaveSection(testCtx(), "study-1", models.SectionConsent, models.SaveSectionRequest{})
	require.NoError(t, err)

	assert.Equal(t, []audit.Code{
		audit.StudyBasicInfoSectionSavedOrUpdated,
		audit.StudySettingsSavedOrUpdated,
	}, auditor.codes)

	study, err := store.Get(context.Background(), "study-1")
	require.NoError(t, err)
	assert.Equal(t, "A 12-week study", study.Description)
	assert.Equal(t, "open", study.Enrollment)
}

func TestCompleteSection_AllSections(t *testing.T) {
	expected := map[models.Section]audit.Code{
		models.SectionBasicInfo:      audit.StudyBasicInfoSectionMarkedComplete,
		models.SectionSettings:       audit.StudySettingsMarkedComplete,
		models.SectionConsent:        audit.StudyConsentSectionsMarkedComplete,
		models.SectionNotifications:  audit.StudyNotificationsSectionMarkedDone,
		models.SectionQuestionnaires: audit.StudyQuestionnairesSectionMarkedDone,
		models.SectionResources:      audit.StudyResourceSectionMarkedComplete,
	}
	for section, code := range expected {
		t.Run(string(section), func(t *testing.T) {
			svc, store, auditor := newService()
			seedStudy(t, store, "study-1", models.StatusDraft)

			study, err := svc.CompleteSection(testCtx(), "study-1", section)
			require.NoError(t, err)
			assert.True(t, study.Sections[section])
			assert.Equal(t, []audit.Code{code}, auditor.codes)
		})
	}
}

func TestResources_SaveAndComplete(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.SaveResource(testCtx(), "study-1", "res-1",
		models.SaveResourceRequest{Title: "Consent FAQ"})
	require.NoError(t, err)
	_, err = svc.CompleteResource(testCtx(), "study-1", "res-1")
	require.NoError(t, err)

	assert.Equal(t, []audit.Code{
		audit.StudyResourceSavedOrUpdated,
		audit.StudyResourceMarkedCompleted,
	}, auditor.codes)

	study, err := store.Get(context.Background(), "study-1")
	require.NoError(t, err)
	require.Contains(t, study.Resources, "res-1")
	assert.True(t, study.Resources["res-1"].Completed)
}

func TestCompleteResource_MissingResource(t *testing.T) {
	svc, store, auditor := newService()
	seedStudy(t, store, "study-1", models.StatusDraft)

	_, err := svc.CompleteResource(testCtx(), "study-1", "res-404")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, auditor.codes)
}
