package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studygate/internal/participant/models"
	"studygate/internal/participant/store/memory"
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
	return requestcontext.WithTime(ctx, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
}

func seedLocation(t *testing.T, svc *Service, customID string) *models.Location {
	t.Helper()
	loc, err := svc.CreateLocation(testCtx(), models.CreateLocationRequest{
		CustomID: customID,
		Name:     "Boston Clinic",
	})
	require.NoError(t, err)
	return loc
}

func intPtr(v int) *int { return &v }

func TestCreateLocation_EmitsNewLocationAdded(t *testing.T) {
	svc, _, auditor := newService()

	loc, err := svc.CreateLocation(testCtx(), models.CreateLocationRequest{
		CustomID:    "BOS-01",
		Name:        "Boston Clinic",
		Description: "Primary New England site",
	})
	require.NoError(t, err)

	assert.Equal(t, models.LocationActive, loc.Status)
	assert.NotEmpty(t, loc.ID)
	assert.Equal(t, []audit.Code{audit.NewLocationAdded}, auditor.codes)
}

func TestCreateLocation_DuplicateCustomIDConflicts(t *testing.T) {
	svc, _, auditor := newService()
	seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	_, err := svc.CreateLocation(testCtx(), models.CreateLocationRequest{
		CustomID: "BOS-01",
		Name:     "Boston Clinic Annex",
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Empty(t, auditor.codes)
}

func TestCreateLocation_MissingNameIsBadRequest(t *testing.T) {
	svc, _, auditor := newService()

	_, err := svc.CreateLocation(testCtx(), models.CreateLocationRequest{CustomID: "BOS-01"})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	assert.Empty(t, auditor.codes)
}

func TestUpdateLocation_PlainEditEmitsLocationEdited(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	updated, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Name: "Boston Clinic North",
	})
	require.NoError(t, err)

	assert.Equal(t, "Boston Clinic North", updated.Name)
	assert.Equal(t, models.LocationActive, updated.Status)
	assert.Equal(t, []audit.Code{audit.LocationEdited}, auditor.codes)
}

func TestUpdateLocation_StatusToggles(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	decommissioned, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Status: intPtr(models.StatusToggleDecommission),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LocationDecommissioned, decommissioned.Status)

	activated, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Status: intPtr(models.StatusToggleActivate),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LocationActive, activated.Status)

	assert.Equal(t, []audit.Code{
		audit.LocationDecommissioned,
		audit.LocationActivated,
	}, auditor.codes)
}

func TestUpdateLocation_RedundantToggleConflicts(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	_, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Status: intPtr(models.StatusToggleActivate),
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Empty(t, auditor.codes)
}

func TestUpdateLocation_UnknownStatusValueIsBadRequest(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	_, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Status: intPtr(7),
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	assert.Empty(t, auditor.codes)
}

func TestUpdateLocation_MissingLocationNotFound(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.UpdateLocation(testCtx(), "missing", models.UpdateLocationRequest{Name: "X"})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAddSite_EmitsSiteAddedForStudy(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	auditor.codes = nil

	site, err := svc.AddSite(testCtx(), models.CreateSiteRequest{
		StudyID:    "678574",
		LocationID: loc.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "678574", site.StudyID)
	assert.Equal(t, loc.ID, site.LocationID)
	assert.Equal(t, []audit.Code{audit.SiteAddedForStudy}, auditor.codes)
}

func TestAddSite_DuplicatePairConflicts(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	req := models.CreateSiteRequest{StudyID: "678574", LocationID: loc.ID}
	_, err := svc.AddSite(testCtx(), req)
	require.NoError(t, err)
	auditor.codes = nil

	_, err = svc.AddSite(testCtx(), req)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Empty(t, auditor.codes)
}

func TestAddSite_DecommissionedLocationConflicts(t *testing.T) {
	svc, _, auditor := newService()
	loc := seedLocation(t, svc, "BOS-01")
	_, err := svc.UpdateLocation(testCtx(), loc.ID, models.UpdateLocationRequest{
		Status: intPtr(models.StatusToggleDecommission),
	})
	require.NoError(t, err)
	auditor.codes = nil

	_, err = svc.AddSite(testCtx(), models.CreateSiteRequest{
		StudyID:    "678574",
		LocationID: loc.ID,
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Empty(t, auditor.codes)
}

func TestAddSite_UnknownLocationNotFound(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.AddSite(testCtx(), models.CreateSiteRequest{
		StudyID:    "678574",
		LocationID: "missing",
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListSites_FiltersByStudy(t *testing.T) {
	svc, _, _ := newService()
	locA := seedLocation(t, svc, "BOS-01")
	locB := seedLocation(t, svc, "NYC-01")

	_, err := svc.AddSite(testCtx(), models.CreateSiteRequest{StudyID: "study-a", LocationID: locA.ID})
	require.NoError(t, err)
	_, err = svc.AddSite(testCtx(), models.CreateSiteRequest{StudyID: "study-b", LocationID: locB.ID})
	require.NoError(t, err)

	sites, err := svc.ListSites(testCtx(), "study-a")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, locA.ID, sites[0].LocationID)
}
