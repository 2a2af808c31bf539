// Package handler exposes the user management HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studygate/internal/usermgmt/models"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/httputil"
	"studygate/pkg/requestcontext"
)

// Service defines the user operations the handler needs.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Verify(ctx context.Context, req models.VerifyRequest) (*models.User, error)
}

// Handler handles user management endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a user management Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Post("/verify", h.handleVerify)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "register user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.service.Verify(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, "verify user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "user operation failed",
			"operation", op,
			"correlation_id", requestcontext.CorrelationID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
