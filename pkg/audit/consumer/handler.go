// Package consumer materializes audit events from the Kafka topic into the
// audit store. Offsets commit only after a successful store write, so the
// store converges on every event that reached the topic.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"studygate/internal/platform/kafka/consumer"
	"studygate/pkg/audit"
)

// Handler decodes audit event records and appends them to the store.
type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

// NewHandler creates a materialization handler.
func NewHandler(store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Handle processes one record. Malformed payloads are logged and committed;
// redelivering them can never succeed. Store failures return an error so the
// record is redelivered.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event audit.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("malformed audit payload, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	if err := event.Validate(); err != nil {
		h.logger.Error("invalid audit event, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"event_code", event.EventCode,
			"error", err,
		)
		return nil
	}

	if err := h.store.Append(ctx, event); err != nil {
		return fmt.Errorf("materialize audit event %s: %w", event.EventCode, err)
	}

	if event.Alert {
		h.logger.Warn("alert audit event materialized",
			"event_code", event.EventCode,
			"correlation_id", event.CorrelationID,
			"system_id", event.SystemID,
		)
	}
	return nil
}
