// Package metadata resolves the client identifier used for rate limiting and
// logging from proxy-forwarded headers.
package metadata

import (
	"net/http"
	"strings"

	"authgate/pkg/requestcontext"
)

// UnknownClient is the identifier used when no forwarding header is present.
const UnknownClient = "unknown"

// MaxClientIDLength bounds the client identifier taken from a forwarding
// header; longer entries are ignored.
const MaxClientIDLength = 500

// ClientKeyOf derives a stable client identifier from forwarded headers:
// the first entry of X-Forwarded-For, else X-Real-IP, else "unknown".
func ClientKeyOf(h http.Header) string {
	first, _, _ := strings.Cut(h.Get("X-Forwarded-For"), ",")
	if first = strings.TrimSpace(first); first != "" && len(first) <= MaxClientIDLength {
		return first
	}
	if xri := strings.TrimSpace(h.Get("X-Real-IP")); xri != "" && len(xri) <= MaxClientIDLength {
		return xri
	}
	return UnknownClient
}

// Handler stores the client identifier and User-Agent on the request context.
func Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientKeyOf(r.Header), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
