package audit

import "context"

// Store persists audit events. The Kafka consumer materializes events
// through it; admin surfaces read back through it. Implementations must be
// idempotent on (correlationId, eventCode) so at-least-once delivery never
// double-counts a logical event.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCorrelation(ctx context.Context, correlationID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
