package device

import (
	"net/http"

	"authgate/pkg/requestcontext"
)

// DescribeFunc derives a display name and fingerprint from a User-Agent.
type DescribeFunc func(userAgent string) (displayName, fingerprint string)

// Device records the caller's device description in the request context.
// Register it after the metadata middleware so the User-Agent is available.
func Device(describe DescribeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if describe != nil {
				name, fp := describe(requestcontext.UserAgent(ctx))
				ctx = requestcontext.WithDevice(ctx, name, fp)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
