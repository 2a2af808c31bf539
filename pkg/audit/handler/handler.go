// Package handler exposes a read-only HTTP surface over materialized audit
// events. The audit worker mounts it on its admin listener so operators can
// trace a correlation id or tail recent events without a database session.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studygate/pkg/audit"
	dErrors "studygate/pkg/domain-errors"
	"studygate/pkg/httputil"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// Reader reads back materialized audit events.
type Reader interface {
	ListByCorrelation(ctx context.Context, correlationID string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves the audit read endpoints.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

// New creates an audit read Handler.
func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts the audit read routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audit/events", func(r chi.Router) {
		r.Get("/", h.handleListByCorrelation)
		r.Get("/recent", h.handleListRecent)
	})
}

func (h *Handler) handleListByCorrelation(w http.ResponseWriter, r *http.Request) {
	correlationID := r.URL.Query().Get("correlationId")
	if correlationID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "correlationId query parameter is required"))
		return
	}

	events, err := h.reader.ListByCorrelation(r.Context(), correlationID)
	if err != nil {
		h.writeReadError(r.Context(), w, "list by correlation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRecentLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.reader.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeReadError(r.Context(), w, "list recent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) writeReadError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.ErrorContext(ctx, "audit read failed", "operation", op, "error", err)
	httputil.WriteError(w, err)
}
