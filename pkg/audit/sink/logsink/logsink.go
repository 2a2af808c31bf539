// Package logsink writes audit events to the structured log. Default sink in
// local development, where no audit service or broker is running.
package logsink

import (
	"context"
	"log/slog"

	"studygate/pkg/audit"
)

// Sink logs every delivered event.
type Sink struct {
	logger *slog.Logger
}

// New creates a logging sink.
func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

// Deliver logs the event and never fails.
func (s *Sink) Deliver(ctx context.Context, event audit.Event) error {
	s.logger.InfoContext(ctx, "audit event",
		"correlation_id", event.CorrelationID,
		"event_code", string(event.EventCode),
		"system_id", event.SystemID,
		"occurred_at_millis", event.OccurredAt,
		"alert", event.Alert,
	)
	return nil
}
