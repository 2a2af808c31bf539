// Package audit defines the audit event record, the closed event catalog,
// and validation applied before any event reaches a delivery channel.
package audit

import (
	"fmt"
	"strings"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: user creation, registration failures, study launches.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: failed registrations, access in edit mode.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Examples: study views, section saves.
	CategoryOperations EventCategory = "operations"
)

// Event is the record emitted once per audited action. It is immutable after
// construction: the emitter builds it, validates it, and hands it to the
// delivery channel by value.
//
// Field bounds mirror the audit sink's contract; Validate rejects the record
// before transmission when any bound is violated.
type Event struct {
	CorrelationID            string        `json:"correlationId"`
	EventCode                Code          `json:"eventCode"`
	UserID                   string        `json:"actorUserId,omitempty"`
	SystemID                 string        `json:"systemId"`
	SystemIP                 string        `json:"systemIp"`
	ClientIP                 string        `json:"clientIp"`
	Description              string        `json:"description"`
	EventDetail              string        `json:"eventDetail"`
	ApplicationVersion       string        `json:"applicationVersion"`
	ApplicationComponentName string        `json:"applicationComponentName"`
	OccurredAt               int64         `json:"occurredAtMillis"`
	AppID                    string        `json:"appId,omitempty"`
	ClientID                 string        `json:"clientId,omitempty"`
	DeviceType               string        `json:"deviceType,omitempty"`
	DevicePlatform           string        `json:"devicePlatform,omitempty"`
	ResourceServer           string        `json:"resourceServer,omitempty"`
	ClientAppVersion         string        `json:"clientAppVersion,omitempty"`
	ClientAccessLevel        string        `json:"clientAccessLevel,omitempty"`
	AccessLevel              string        `json:"accessLevel,omitempty"`
	RequestURI               string        `json:"requestUri,omitempty"`
	Alert                    bool          `json:"alert"`
	Category                 EventCategory `json:"category,omitempty"`
}

// String renders the event for logs. UserID, IPs, description, event detail
// and request URI are deliberately excluded to keep PII out of log streams.
func (e Event) String() string {
	return fmt.Sprintf("audit.Event{correlationId:%s eventCode:%s systemId:%s component:%s occurred:%d alert:%t}",
		e.CorrelationID, e.EventCode, e.SystemID, e.ApplicationComponentName, e.OccurredAt, e.Alert)
}

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("audit event field %s: %s", e.Field, e.Reason)
}

func required(field, value string, max int) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be blank"}
	}
	if len(value) > max {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("exceeds %d chars", max)}
	}
	return nil
}

func bounded(field, value string, max int) *ValidationError {
	if len(value) > max {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("exceeds %d chars", max)}
	}
	return nil
}

func ipLiteral(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be blank"}
	}
	if len(value) < 7 || len(value) > 39 {
		return &ValidationError{Field: field, Reason: "must be 7-39 chars (IPv4/IPv6 literal)"}
	}
	return nil
}

// Validate enforces presence and size bounds on every field. An event that
// fails validation is never submitted to a delivery channel.
func (e Event) Validate() error {
	checks := []*ValidationError{
		required("correlationId", e.CorrelationID, 36),
		required("eventCode", string(e.EventCode), 40),
		required("systemId", e.SystemID, 30),
		ipLiteral("systemIp", e.SystemIP),
		ipLiteral("clientIp", e.ClientIP),
		required("description", e.Description, 255),
		required("eventDetail", e.EventDetail, 255),
		required("applicationVersion", e.ApplicationVersion, 60),
		required("applicationComponentName", e.ApplicationComponentName, 100),
		bounded("actorUserId", e.UserID, 100),
		bounded("appId", e.AppID, 100),
		bounded("clientId", e.ClientID, 100),
		bounded("deviceType", e.DeviceType, 10),
		bounded("devicePlatform", e.DevicePlatform, 100),
		bounded("resourceServer", e.ResourceServer, 40),
		bounded("clientAppVersion", e.ClientAppVersion, 20),
		bounded("clientAccessLevel", e.ClientAccessLevel, 20),
		bounded("accessLevel", e.AccessLevel, 10),
		bounded("requestUri", e.RequestURI, 255),
	}
	for _, c := range checks {
		if c != nil {
			return c
		}
	}
	if e.OccurredAt <= 0 {
		return &ValidationError{Field: "occurredAtMillis", Reason: "must be a positive epoch timestamp"}
	}
	return nil
}

// Key identifies the logical event for set-membership consumers. Duplicate
// delivery of the same key must not be double-counted downstream.
type Key struct {
	CorrelationID string
	EventCode     Code
}

// LogicalKey returns the (correlationId, eventCode) identity of the event.
func (e Event) LogicalKey() Key {
	return Key{CorrelationID: e.CorrelationID, EventCode: e.EventCode}
}
