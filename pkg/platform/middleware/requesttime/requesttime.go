// Package requesttime pins one "now" per request so session timestamps,
// token expiry and rate-limit decisions agree within a request.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type nowKey struct{}

// Clock returns the current time.
type Clock func() time.Time

// Middleware stamps each request with clock(). A nil clock uses time.Now.
func Middleware(clock Clock) func(http.Handler) http.Handler {
	if clock == nil {
		clock = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithTime(r.Context(), clock())))
		})
	}
}

// Now returns the request's pinned time, or time.Now outside a request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, t)
}
