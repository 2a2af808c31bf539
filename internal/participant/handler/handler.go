// Package handler exposes the participant manager HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studygate/internal/participant/models"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/httputil"
	"studygate/pkg/requestcontext"
)

// Service defines the participant operations the handler needs.
type Service interface {
	CreateLocation(ctx context.Context, req models.CreateLocationRequest) (*models.Location, error)
	UpdateLocation(ctx context.Context, id string, req models.UpdateLocationRequest) (*models.Location, error)
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	AddSite(ctx context.Context, req models.CreateSiteRequest) (*models.Site, error)
	ListSites(ctx context.Context, studyID string) ([]*models.Site, error)
}

// Handler handles participant manager endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a participant manager Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the location and site routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/locations", func(r chi.Router) {
		r.Post("/", h.handleCreateLocation)
		r.Get("/", h.handleListLocations)
		r.Get("/{locationID}", h.handleGetLocation)
		r.Put("/{locationID}", h.handleUpdateLocation)
	})
	r.Route("/sites", func(r chi.Router) {
		r.Post("/", h.handleAddSite)
		r.Get("/", h.handleListSites)
	})
}

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loc, err := h.service.CreateLocation(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "create location", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, loc)
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, "list locations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, locations)
}

func (h *Handler) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.service.GetLocation(r.Context(), chi.URLParam(r, "locationID"))
	if err != nil {
		h.writeServiceError(r.Context(), w, "get location", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loc, err := h.service.UpdateLocation(r.Context(), chi.URLParam(r, "locationID"), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "update location", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	site, err := h.service.AddSite(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "add site", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, site)
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	studyID := r.URL.Query().Get("studyId")
	if studyID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "studyId query parameter is required"))
		return
	}

	sites, err := h.service.ListSites(r.Context(), studyID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "list sites", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sites)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "participant operation failed",
			"operation", op,
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
