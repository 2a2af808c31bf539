// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware and consumed by services and the audit
// emitter. Keeping this package free of net/http lets services import only
// what they need.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	correlationID := requestcontext.CorrelationID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCorrelationID(ctx, id)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	correlationIDKey  struct{}
	userIDKey         struct{}
	appIDKey          struct{}
	clientIDKey       struct{}
	clientIPKey       struct{}
	userAgentKey      struct{}
	deviceTypeKey     struct{}
	devicePlatformKey struct{}
	requestURIKey     struct{}
	requestTimeKey    struct{}
)

// CorrelationID retrieves the correlation id grouping all audit events
// produced by one logical request. Empty if no middleware set it.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithCorrelationID injects a correlation id into the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// UserID retrieves the acting user's id. Empty for anonymous requests.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects a user id into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// AppID retrieves the mobile/web app identifier supplied by the caller.
func AppID(ctx context.Context) string {
	if v, ok := ctx.Value(appIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithAppID injects an app id into the context.
func WithAppID(ctx context.Context, appID string) context.Context {
	return context.WithValue(ctx, appIDKey{}, appID)
}

// ClientID retrieves the OAuth client id of the calling application.
func ClientID(ctx context.Context) string {
	if v, ok := ctx.Value(clientIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientID injects a client id into the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// DeviceType retrieves the device type ("mobile", "tablet", "desktop")
// derived from the User-Agent.
func DeviceType(ctx context.Context) string {
	if v, ok := ctx.Value(deviceTypeKey{}).(string); ok {
		return v
	}
	return ""
}

// DevicePlatform retrieves the device platform/OS name.
func DevicePlatform(ctx context.Context) string {
	if v, ok := ctx.Value(devicePlatformKey{}).(string); ok {
		return v
	}
	return ""
}

// WithDevice injects device type and platform into a context.
func WithDevice(ctx context.Context, deviceType, platform string) context.Context {
	ctx = context.WithValue(ctx, deviceTypeKey{}, deviceType)
	ctx = context.WithValue(ctx, devicePlatformKey{}, platform)
	return ctx
}

// RequestURI retrieves the inbound request URI.
func RequestURI(ctx context.Context) string {
	if v, ok := ctx.Value(requestURIKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestURI injects the request URI into a context.
func WithRequestURI(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, requestURIKey{}, uri)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts like workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so all operations within
// one request observe the same "now".
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
