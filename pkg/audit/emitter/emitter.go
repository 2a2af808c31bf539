// Package emitter builds validated audit events from ambient request context
// and hands them to the delivery channel. Emission is fire-and-forget: no
// audit failure ever propagates to the business operation that triggered it.
package emitter

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studygate/pkg/audit"
	"studygate/pkg/requestcontext"
)

// Submitter is the channel-facing side of emission.
type Submitter interface {
	Submit(ctx context.Context, event audit.Event) error
}

// Identity describes the emitting system. Values come from configuration and
// are stamped onto every event.
type Identity struct {
	SystemID                 string
	SystemIP                 string
	ApplicationVersion       string
	ApplicationComponentName string
	ResourceServer           string
}

// Emitter constructs and submits audit events. Safe for concurrent use; the
// catalog and identity are read-only and the channel is the only shared
// mutable dependency.
type Emitter struct {
	channel  Submitter
	identity Identity
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithMetrics sets the Prometheus collectors for emission outcomes.
func WithMetrics(m *Metrics) Option {
	return func(e *Emitter) { e.metrics = m }
}

// New creates an emitter bound to a delivery channel.
func New(channel Submitter, identity Identity, logger *slog.Logger, opts ...Option) *Emitter {
	e := &Emitter{channel: channel, identity: identity, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// EventOption customizes one emitted event.
type EventOption func(*audit.Event)

// WithDetail overrides the event detail text (defaults to the catalog name).
func WithDetail(detail string) EventOption {
	return func(e *audit.Event) { e.EventDetail = detail }
}

// WithUserID overrides the actor taken from the request context. Used when a
// service knows the affected user before any auth middleware ran, e.g. during
// registration.
func WithUserID(userID string) EventOption {
	return func(e *audit.Event) { e.UserID = userID }
}

// Emit submits exactly one event for the given code under the request's
// correlation id. Unknown codes and validation failures are logged and
// counted, never surfaced to the caller. Callers wanting several events for
// one logical action call Emit once per code; all share the correlation id
// carried by ctx.
func (e *Emitter) Emit(ctx context.Context, code audit.Code, opts ...EventOption) {
	def, ok := audit.Lookup(code)
	if !ok {
		e.reject(ctx, code, "event code not in catalog")
		return
	}

	event := audit.Event{
		CorrelationID:            requestcontext.CorrelationID(ctx),
		EventCode:                code,
		UserID:                   requestcontext.UserID(ctx),
		SystemID:                 e.identity.SystemID,
		SystemIP:                 e.identity.SystemIP,
		ClientIP:                 requestcontext.ClientIP(ctx),
		Description:              def.Name,
		EventDetail:              def.Name,
		ApplicationVersion:       e.identity.ApplicationVersion,
		ApplicationComponentName: e.identity.ApplicationComponentName,
		ResourceServer:           e.identity.ResourceServer,
		OccurredAt:               requestcontext.Now(ctx).UnixMilli(),
		AppID:                    requestcontext.AppID(ctx),
		ClientID:                 requestcontext.ClientID(ctx),
		DeviceType:               requestcontext.DeviceType(ctx),
		DevicePlatform:           requestcontext.DevicePlatform(ctx),
		RequestURI:               requestcontext.RequestURI(ctx),
		Alert:                    def.Alert,
		Category:                 def.Category,
	}
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		e.reject(ctx, code, err.Error())
		return
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(string(code), trace.WithAttributes(
			attribute.String("audit.correlation_id", event.CorrelationID),
			attribute.String("audit.category", string(event.Category)),
		))
	}

	if err := e.channel.Submit(ctx, event); err != nil {
		if e.metrics != nil {
			e.metrics.SubmitFailures.Inc()
		}
		e.logger.ErrorContext(ctx, "audit event submission failed",
			"event_code", code,
			"correlation_id", event.CorrelationID,
			"error", err,
		)
		return
	}

	if e.metrics != nil {
		e.metrics.Emitted.Inc()
	}
}

// Now returns the emitter's notion of current time for callers that need a
// timestamp consistent with emitted events.
func (e *Emitter) Now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}

func (e *Emitter) reject(ctx context.Context, code audit.Code, reason string) {
	if e.metrics != nil {
		e.metrics.Rejected.Inc()
	}
	e.logger.ErrorContext(ctx, "audit event rejected before transmission",
		"event_code", code,
		"reason", reason,
	)
}
