// Package metadata extracts client-side request metadata used by audit
// events: the caller's IP address, User-Agent, device type and platform, and
// the app/client identifiers mobile apps send as headers.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"studygate/pkg/requestcontext"
)

// Headers mobile and web clients use to identify themselves.
const (
	HeaderAppID    = "appId"
	HeaderClientID = "clientId"
)

// ClientMetadata extracts client IP, User-Agent, device information and app
// identifiers from the request and stores them in the context.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")

		deviceType, platform := deviceInfo(ua)
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua)
		ctx = requestcontext.WithDevice(ctx, deviceType, platform)

		if appID := r.Header.Get(HeaderAppID); appID != "" {
			ctx = requestcontext.WithAppID(ctx, appID)
		}
		if clientID := r.Header.Get(HeaderClientID); clientID != "" {
			ctx = requestcontext.WithClientID(ctx, clientID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceInfo classifies the User-Agent into the coarse device type audit
// events carry, plus the platform name.
func deviceInfo(ua string) (deviceType, platform string) {
	if ua == "" {
		return "", ""
	}
	parsed := useragent.New(ua)
	platform = parsed.OSInfo().Name
	if platform == "" {
		platform = parsed.Platform()
	}
	if parsed.Mobile() {
		return "mobile", platform
	}
	if parsed.Bot() {
		return "bot", platform
	}
	return "desktop", platform
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers. IPv6 literals are returned in their full uncompressed form.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can hold a chain; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return normalizeIP(strings.TrimSpace(xff[:idx]))
		}
		return normalizeIP(strings.TrimSpace(xff))
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return normalizeIP(strings.TrimSpace(xri))
	}

	// RemoteAddr is "ip:port" for IPv4 and "[::1]:port" for IPv6.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return normalizeIP(strings.Trim(addr[:idx], "[]"))
		}
		return normalizeIP(addr)
	}

	return "unknown"
}

// normalizeIP expands IPv6 literals. Compressed forms like "::1" are too
// short for the fixed ip width audit events enforce.
func normalizeIP(s string) string {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	if addr.Is4() || addr.Is4In6() {
		return addr.Unmap().String()
	}
	return addr.StringExpanded()
}
