// Package handler exposes the study builder HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studygate/internal/studybuilder/models"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/httputil"
	"studygate/pkg/requestcontext"
)

// Service defines the study operations the handler needs.
type Service interface {
	Create(ctx context.Context, req models.CreateStudyRequest) (*models.Study, error)
	SaveDraft(ctx context.Context, id string, req models.SaveSectionRequest) (*models.Study, error)
	Get(ctx context.Context, id string, editMode bool) (*models.Study, error)
	GetPublished(ctx context.Context, id string) (*models.Study, error)
	List(ctx context.Context) ([]*models.Study, error)
	Apply(ctx context.Context, id string, action models.Action) (*models.Study, error)
	SaveSection(ctx context.Context, id string, section models.Section, req models.SaveSectionRequest) (*models.Study, error)
	CompleteSection(ctx context.Context, id string, section models.Section) (*models.Study, error)
	SaveResource(ctx context.Context, id, resourceID string, req models.SaveResourceRequest) (*models.Study, error)
	CompleteResource(ctx context.Context, id, resourceID string) (*models.Study, error)
}

// Handler handles study builder endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a study builder Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the study routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/studies", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{studyID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/published", h.handleGetPublished)
			r.Post("/draft", h.handleSaveDraft)
			r.Post("/action", h.handleAction)
			r.Put("/sections/{section}", h.handleSaveSection)
			r.Post("/sections/{section}/complete", h.handleCompleteSection)
			r.Put("/resources/{resourceID}", h.handleSaveResource)
			r.Post("/resources/{resourceID}/complete", h.handleCompleteResource)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	study, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "create study", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, study)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	studies, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, "list studies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, studies)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	editMode := r.URL.Query().Get("mode") == "edit"
	study, err := h.service.Get(r.Context(), chi.URLParam(r, "studyID"), editMode)
	if err != nil {
		h.writeServiceError(r.Context(), w, "get study", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleGetPublished(w http.ResponseWriter, r *http.Request) {
	study, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "studyID"))
	if err != nil {
		h.writeServiceError(r.Context(), w, "get published study", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req models.SaveSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	study, err := h.service.SaveDraft(r.Context(), chi.URLParam(r, "studyID"), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "save draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	study, err := h.service.Apply(r.Context(), chi.URLParam(r, "studyID"), models.Action(req.Action))
	if err != nil {
		h.writeServiceError(r.Context(), w, "apply study action", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleSaveSection(w http.ResponseWriter, r *http.Request) {
	var req models.SaveSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	study, err := h.service.SaveSection(r.Context(), chi.URLParam(r, "studyID"),
		models.Section(chi.URLParam(r, "section")), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "save section", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	study, err := h.service.CompleteSection(r.Context(), chi.URLParam(r, "studyID"),
		models.Section(chi.URLParam(r, "section")))
	if err != nil {
		h.writeServiceError(r.Context(), w, "complete section", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleSaveResource(w http.ResponseWriter, r *http.Request) {
	var req models.SaveResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	study, err := h.service.SaveResource(r.Context(), chi.URLParam(r, "studyID"),
		chi.URLParam(r, "resourceID"), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "save resource", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) handleCompleteResource(w http.ResponseWriter, r *http.Request) {
	study, err := h.service.CompleteResource(r.Context(), chi.URLParam(r, "studyID"),
		chi.URLParam(r, "resourceID"))
	if err != nil {
		h.writeServiceError(r.Context(), w, "complete resource", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, study)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "study operation failed",
			"operation", op,
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
