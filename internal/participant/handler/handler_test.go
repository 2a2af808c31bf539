package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/internal/participant/handler"
	"studygate/internal/participant/models"
	"studygate/internal/participant/service"
	"studygate/internal/participant/store/memory"
	"studygate/pkg/audit"
	"studygate/pkg/audit/auditest"
	"studygate/pkg/audit/channel"
	"studygate/pkg/audit/emitter"
	"studygate/pkg/testutil"
)

var requestTime = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	router   chi.Router
	recorder *auditest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	recorder := auditest.NewRecorder()
	ch := channel.New(channel.Config{}, recorder, channel.WithLogger(logger))
	t.Cleanup(ch.Close)

	em := emitter.New(ch, emitter.Identity{
		SystemID:                 "PARTICIPANT_MANAGER",
		SystemIP:                 "10.0.0.7",
		ApplicationVersion:       "1.0.0",
		ApplicationComponentName: "Participant Manager",
		ResourceServer:           "PARTICIPANT_MANAGER",
	}, logger)

	svc := service.NewService(memory.NewInMemoryStore(), em, nil)

	router := chi.NewRouter()
	handler.New(svc, logger).Register(router)

	return &fixture{router: router, recorder: recorder}
}

func (f *fixture) do(t *testing.T, correlationID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithRequestMetadata(req, correlationID, requestTime)
	return testutil.DoRequest(f.router, req)
}

func (f *fixture) createLocation(t *testing.T, customID string) *models.Location {
	t.Helper()
	rr := f.do(t, uuid.NewString(), http.MethodPost, "/locations", models.CreateLocationRequest{
		CustomID: customID,
		Name:     "Boston Clinic",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	return testutil.UnmarshalResponse[models.Location](t, rr)
}

func intPtr(v int) *int { return &v }

func TestCreateLocation_EmitsNewLocationAdded(t *testing.T) {
	f := newFixture(t)
	correlationID := uuid.NewString()

	rr := f.do(t, correlationID, http.MethodPost, "/locations", models.CreateLocationRequest{
		CustomID: "BOS-01",
		Name:     "Boston Clinic",
	})

	assert.Equal(t, http.StatusCreated, rr.Code)
	f.recorder.Verify(t, correlationID, audit.NewLocationAdded)
}

func TestDecommissionLocation_EmitsLocationDecommissioned(t *testing.T) {
	f := newFixture(t)
	loc := f.createLocation(t, "BOS-01")
	correlationID := uuid.NewString()

	rr := f.do(t, correlationID, http.MethodPut, "/locations/"+loc.ID,
		models.UpdateLocationRequest{Status: intPtr(models.StatusToggleDecommission)})

	assert.Equal(t, http.StatusOK, rr.Code)
	f.recorder.Verify(t, correlationID, audit.LocationDecommissioned)
	f.recorder.VerifyAbsent(t, correlationID, audit.LocationEdited)
}

func TestReactivateLocation_EmitsLocationActivated(t *testing.T) {
	f := newFixture(t)
	loc := f.createLocation(t, "BOS-01")
	decommissionID := uuid.NewString()
	f.do(t, decommissionID, http.MethodPut, "/locations/"+loc.ID,
		models.UpdateLocationRequest{Status: intPtr(models.StatusToggleDecommission)})
	f.recorder.Verify(t, decommissionID, audit.LocationDecommissioned)

	correlationID := uuid.NewString()
	rr := f.do(t, correlationID, http.MethodPut, "/locations/"+loc.ID,
		models.UpdateLocationRequest{Status: intPtr(models.StatusToggleActivate)})

	assert.Equal(t, http.StatusOK, rr.Code)
	f.recorder.Verify(t, correlationID, audit.LocationActivated)
}

func TestEditLocation_EmitsLocationEdited(t *testing.T) {
	f := newFixture(t)
	loc := f.createLocation(t, "BOS-01")
	correlationID := uuid.NewString()

	rr := f.do(t, correlationID, http.MethodPut, "/locations/"+loc.ID,
		models.UpdateLocationRequest{Name: "Boston Clinic North"})

	assert.Equal(t, http.StatusOK, rr.Code)
	f.recorder.Verify(t, correlationID, audit.LocationEdited)
}

func TestAddSite_EmitsSiteAddedForStudy(t *testing.T) {
	f := newFixture(t)
	loc := f.createLocation(t, "BOS-01")
	correlationID := uuid.NewString()

	rr := f.do(t, correlationID, http.MethodPost, "/sites", models.CreateSiteRequest{
		StudyID:    "678574",
		LocationID: loc.ID,
	})

	assert.Equal(t, http.StatusCreated, rr.Code)
	f.recorder.Verify(t, correlationID, audit.SiteAddedForStudy)
}

func TestAddSite_DuplicatePairConflictsWithoutEvent(t *testing.T) {
	f := newFixture(t)
	loc := f.createLocation(t, "BOS-01")
	req := models.CreateSiteRequest{StudyID: "678574", LocationID: loc.ID}
	firstID := uuid.NewString()
	f.do(t, firstID, http.MethodPost, "/sites", req)
	f.recorder.Verify(t, firstID, audit.SiteAddedForStudy)

	correlationID := uuid.NewString()
	rr := f.do(t, correlationID, http.MethodPost, "/sites", req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	f.recorder.VerifyAbsent(t, correlationID, audit.SiteAddedForStudy)
}

func TestListSites_RequiresStudyID(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/sites")
	req = testutil.WithRequestMetadata(req, uuid.NewString(), requestTime)
	rr := testutil.DoRequest(f.router, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetLocation_UnknownIsNotFound(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/locations/missing")
	req = testutil.WithRequestMetadata(req, uuid.NewString(), requestTime)
	rr := testutil.DoRequest(f.router, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
