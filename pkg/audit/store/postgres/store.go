// Package postgres materializes audit events into the audit_events table.
// Kafka is the source of truth; this store exists so verification and admin
// surfaces can query by correlation ID.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"studygate/pkg/audit"
)

// Schema creates the audit_events table. The unique index on
// (correlation_id, event_code) is what makes at-least-once redelivery safe.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	correlation_id VARCHAR(36) NOT NULL,
	event_code VARCHAR(40) NOT NULL,
	actor_user_id VARCHAR(100),
	system_id VARCHAR(30) NOT NULL,
	system_ip VARCHAR(39) NOT NULL,
	client_ip VARCHAR(39) NOT NULL,
	description VARCHAR(255) NOT NULL,
	event_detail VARCHAR(255) NOT NULL,
	application_version VARCHAR(60) NOT NULL,
	application_component_name VARCHAR(100) NOT NULL,
	occurred_at_millis BIGINT NOT NULL,
	app_id VARCHAR(100),
	client_id VARCHAR(100),
	device_type VARCHAR(10),
	device_platform VARCHAR(100),
	resource_server VARCHAR(40),
	client_app_version VARCHAR(20),
	client_access_level VARCHAR(20),
	access_level VARCHAR(10),
	request_uri VARCHAR(255),
	alert BOOLEAN NOT NULL DEFAULT FALSE,
	category VARCHAR(20) NOT NULL DEFAULT 'operations',
	CONSTRAINT audit_events_logical_key UNIQUE (correlation_id, event_code)
);
CREATE INDEX IF NOT EXISTS idx_audit_events_occurred ON audit_events (occurred_at_millis DESC);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the table definition. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Append inserts the event. Duplicate (correlation_id, event_code) pairs are
// ignored so redelivered records never double-count.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			correlation_id, event_code, actor_user_id, system_id, system_ip,
			client_ip, description, event_detail, application_version,
			application_component_name, occurred_at_millis, app_id, client_id,
			device_type, device_platform, resource_server, client_app_version,
			client_access_level, access_level, request_uri, alert, category
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (correlation_id, event_code) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.CorrelationID,
		string(event.EventCode),
		event.UserID,
		event.SystemID,
		event.SystemIP,
		event.ClientIP,
		event.Description,
		event.EventDetail,
		event.ApplicationVersion,
		event.ApplicationComponentName,
		event.OccurredAt,
		event.AppID,
		event.ClientID,
		event.DeviceType,
		event.DevicePlatform,
		event.ResourceServer,
		event.ClientAppVersion,
		event.ClientAccessLevel,
		event.AccessLevel,
		event.RequestURI,
		event.Alert,
		string(event.Category),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	correlation_id, event_code, actor_user_id, system_id, system_ip,
	client_ip, description, event_detail, application_version,
	application_component_name, occurred_at_millis, app_id, client_id,
	device_type, device_platform, resource_server, client_app_version,
	client_access_level, access_level, request_uri, alert, category
`

// ListByCorrelation returns all events for a correlation ID in occurrence
// order.
func (s *Store) ListByCorrelation(ctx context.Context, correlationID string) ([]audit.Event, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM audit_events
		WHERE correlation_id = $1
		ORDER BY occurred_at_millis ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM audit_events
		ORDER BY occurred_at_millis DESC, id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountAlerts returns how many alert-flagged events exist for a correlation
// ID. Used by the admin surface to highlight failed flows.
func (s *Store) CountAlerts(ctx context.Context, correlationID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM audit_events WHERE correlation_id = $1 AND alert`
	if err := s.db.QueryRowContext(ctx, query, correlationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count alert events: %w", err)
	}
	return count, nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event     audit.Event
			eventCode string
			category  string
		)
		err := rows.Scan(
			&event.CorrelationID,
			&eventCode,
			&event.UserID,
			&event.SystemID,
			&event.SystemIP,
			&event.ClientIP,
			&event.Description,
			&event.EventDetail,
			&event.ApplicationVersion,
			&event.ApplicationComponentName,
			&event.OccurredAt,
			&event.AppID,
			&event.ClientID,
			&event.DeviceType,
			&event.DevicePlatform,
			&event.ResourceServer,
			&event.ClientAppVersion,
			&event.ClientAccessLevel,
			&event.AccessLevel,
			&event.RequestURI,
			&event.Alert,
			&category,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.EventCode = audit.Code(eventCode)
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
