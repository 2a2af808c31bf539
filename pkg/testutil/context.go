package testutil

import (
	"net/http"
	"time"

	"studygate/pkg/requestcontext"
)

// WithRequestMetadata seeds a request with the context values the middleware
// chain would normally populate: correlation ID, client metadata and a fixed
// request time. Handler tests use this instead of mounting the full chain.
func WithRequestMetadata(req *http.Request, correlationID string, now time.Time) *http.Request {
	ctx := requestcontext.WithCorrelationID(req.Context(), correlationID)
	ctx = requestcontext.WithClientMetadata(ctx, "192.168.1.10", "studygate-test")
	ctx = requestcontext.WithRequestURI(ctx, req.URL.Path)
	ctx = requestcontext.WithTime(ctx, now)
	return req.WithContext(ctx)
}

// WithUserID adds an authenticated user ID to the request context,
// simulating the auth middleware.
func WithUserID(req *http.Request, userID string) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithAppContext adds the app and client identifiers mobile callers supply.
func WithAppContext(req *http.Request, appID, clientID string) *http.Request {
	ctx := requestcontext.WithAppID(req.Context(), appID)
	ctx = requestcontext.WithClientID(ctx, clientID)
	return req.WithContext(ctx)
}
