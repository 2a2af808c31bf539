// Package correlation assigns every inbound request the correlation ID that
// groups its audit events. Callers may supply their own via the
// X-Correlation-Id header; otherwise a fresh UUID is generated.
package correlation

import (
	"net/http"

	"github.com/google/uuid"

	"studygate/pkg/requestcontext"
)

// Header is the inbound and outbound correlation ID header.
const Header = "X-Correlation-Id"

// Middleware resolves the correlation ID, stores it in the request context
// and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 36 {
			id = uuid.NewString()
		}

		ctx := requestcontext.WithCorrelationID(r.Context(), id)
		ctx = requestcontext.WithRequestURI(ctx, r.URL.Path)

		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
