package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/internal/studybuilder/handler"
	"studygate/internal/studybuilder/models"
	"studygate/internal/studybuilder/service"
	"studygate/internal/studybuilder/store/memory"
	"studygate/pkg/audit"
	"studygate/pkg/audit/auditest"
	"studygate/pkg/audit/channel"
	"studygate/pkg/audit/emitter"
	"studygate/pkg/testutil"
)

var requestTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fixture wires the full emission pipeline: handler -> service -> emitter ->
// channel -> recorder. Tests verify through the recorder exactly the way a
// downstream audit consumer would.
type fixture struct {
	router   chi.Router
	store    *memory.InMemoryStore
	recorder *auditest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	recorder := auditest.NewRecorder()
	ch := channel.New(channel.Config{}, recorder, channel.WithLogger(logger))
	t.Cleanup(ch.Close)

	em := emitter.New(ch, emitter.Identity{
		SystemID:                 "STUDY_BUILDER",
		SystemIP:                 "10.0.0.5",
		ApplicationVersion:       "1.0.0",
		ApplicationComponentName: "Study Builder",
		ResourceServer:           "STUDY_BUILDER",
	}, logger)

	store := memory.NewInMemoryStore()
	svc := service.NewService(store, em, nil)

	router := chi.NewRouter()
	handler.New(svc, logger).Register(router)

	return &fixture{router: router, store: store, recorder: recorder}
}

func (f *fixture) seed(t *testing.T, id string, status models.Status) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), &models.Study{
		ID:        id,
		Name:      "Diabetes Prevention",
		Status:    status,
		Sections:  make(map[models.Section]bool),
		Resources: make(map[string]*models.Resource),
		CreatedAt: requestTime.Add(-24 * time.Hour),
	}))
}

func (f *fixture) do(t *testing.T, correlationID, method, path string, body any) int {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithRequestMetadata(req, correlationID, requestTime)
	rr := testutil.DoRequest(f.router, req)
	return rr.Code
}

func TestLaunchStudy_EmitsStudyLaunched(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "678574", models.StatusPreLaunch)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodPost, "/studies/678574/action",
		models.ActionRequest{Action: "lunchId"})

	assert.Equal(t, http.StatusOK, status)
	f.recorder.Verify(t, correlationID, audit.StudyLaunched)
}

func TestLaunchStudy_IllegalTransitionEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "678574", models.StatusDeactivated)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodPost, "/studies/678574/action",
		models.ActionRequest{Action: "lunchId"})

	assert.Equal(t, http.StatusConflict, status)
	f.recorder.VerifyAbsent(t, correlationID, audit.StudyLaunched)
}

func TestCreateStudy_EmitsCreationInitiated(t *testing.T) {
	f := newFixture(t)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodPost, "/studies",
		models.CreateStudyRequest{Name: "Sleep Study", AppID: "gcp-app-01"})

	assert.Equal(t, http.StatusCreated, status)
	f.recorder.Verify(t, correlationID, audit.NewStudyCreationInitiated)
}

func TestStudyLifecycle_EventsShareCorrelationID(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "study-9", models.StatusDraft)
	correlationID := uuid.NewString()

	assert.Equal(t, http.StatusOK, f.do(t, correlationID, http.MethodPost,
		"/studies/study-9/draft", models.SaveSectionRequest{Description: "weekly check-ins"}))
	assert.Equal(t, http.StatusOK, f.do(t, correlationID, http.MethodPost,
		"/studies/study-9/action", models.ActionRequest{Action: "publishId"}))
	assert.Equal(t, http.StatusOK, f.do(t, correlationID, http.MethodPost,
		"/studies/study-9/action", models.ActionRequest{Action: "lunchId"}))

	f.recorder.Verify(t, correlationID,
		audit.StudySavedInDraftState,
		audit.StudyPublishedAsUpcomingStudy,
		audit.StudyLaunched,
	)
}

func TestViewStudy_ModeSelectsEvent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "study-9", models.StatusActive)

	viewID := uuid.NewString()
	assert.Equal(t, http.StatusOK, f.do(t, viewID, http.MethodGet, "/studies/study-9", nil))
	f.recorder.Verify(t, viewID, audit.StudyViewed)

	editID := uuid.NewString()
	assert.Equal(t, http.StatusOK, f.do(t, editID, http.MethodGet, "/studies/study-9?mode=edit", nil))
	f.recorder.Verify(t, editID, audit.StudyAccessedInEditMode)
	f.recorder.VerifyAbsent(t, editID, audit.StudyViewed)

	pubID := uuid.NewString()
	assert.Equal(t, http.StatusOK, f.do(t, pubID, http.MethodGet, "/studies/study-9/published", nil))
	f.recorder.Verify(t, pubID, audit.LastPublishedVersionOfStudyViewed)
}

func TestCompleteSection_EmitsSectionEvent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "study-9", models.StatusDraft)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodPost, "/studies/study-9/sections/consent/complete", nil)

	assert.Equal(t, http.StatusOK, status)
	f.recorder.Verify(t, correlationID, audit.StudyConsentSectionsMarkedComplete)
}

func TestSaveResource_CarriesRequestMetadata(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "study-9", models.StatusDraft)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodPut, "/studies/study-9/resources/res-1",
		models.SaveResourceRequest{Title: "Consent FAQ"})

	assert.Equal(t, http.StatusOK, status)
	f.recorder.VerifyWithEvents(t, correlationID, map[audit.Code]audit.Event{
		audit.StudyResourceSavedOrUpdated: {
			SystemID:   "STUDY_BUILDER",
			ClientIP:   "192.168.1.10",
			RequestURI: "/studies/study-9/resources/res-1",
		},
	}, audit.StudyResourceSavedOrUpdated)
}

func TestUnknownStudy_Returns404WithoutEvents(t *testing.T) {
	f := newFixture(t)
	correlationID := uuid.NewString()

	status := f.do(t, correlationID, http.MethodGet, "/studies/missing", nil)

	assert.Equal(t, http.StatusNotFound, status)
	f.recorder.VerifyAbsent(t, correlationID, audit.StudyViewed)
}
