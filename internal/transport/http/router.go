package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"authgate/internal/admin"
	authdevice "authgate/internal/auth/device"
	authhandler "authgate/internal/auth/handler"
	"authgate/internal/platform/health"
	rlhandler "authgate/internal/ratelimit/handler"
	rlmetrics "authgate/internal/ratelimit/metrics"
	rlmiddleware "authgate/internal/ratelimit/middleware"
	"authgate/internal/ratelimit/models"
	adminmw "authgate/pkg/platform/middleware/admin"
	authmw "authgate/pkg/platform/middleware/auth"
	devicemw "authgate/pkg/platform/middleware/device"
	"authgate/pkg/platform/middleware/metadata"
	"authgate/pkg/platform/middleware/request"
	"authgate/pkg/platform/middleware/requesttime"
)

// Deps are the handlers and middleware the router mounts. Nil optional
// fields disable their routes or middleware.
type Deps struct {
	Logger    *slog.Logger
	RateLimit *rlmiddleware.Middleware
	Tokens    authmw.TokenValidator
	Auth      *authhandler.Handler
	Health    *health.Handler

	// Optional.
	RateLimitAdmin   *rlhandler.Handler
	Admin            *admin.Handler
	AdminToken       string
	GlobalThrottle   *rate.Limiter
	RateLimitMetrics *rlmetrics.Metrics
	RequestMetrics   *request.Metrics
	Metrics          http.Handler
	Clock            requesttime.Clock
}

// NewRouter wires all public endpoints with middleware.
//
// /api/health carries the general quota, /api/auth/* the auth quota, and the
// password reset routes their own hourly quota instead of the auth one.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(metadata.Handler)
	r.Use(requesttime.Middleware(d.Clock))
	r.Use(devicemw.Device(describeDevice))
	r.Use(authmw.AccessToken(authhandler.AccessTokenCookie, d.Tokens, d.Logger))
	r.Use(request.Logger(d.Logger))
	r.Use(request.LatencyMiddleware(d.RequestMetrics, routePattern))
	r.Use(rlmiddleware.GlobalThrottle(d.GlobalThrottle, d.RateLimitMetrics, d.Logger))

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(d.RateLimit.RouteClass(models.ClassGeneral))
			d.Health.Register(g)
		})

		api.Route("/auth", func(ar chi.Router) {
			ar.Group(func(g chi.Router) {
				g.Use(d.RateLimit.RouteClass(models.ClassAuth))
				d.Auth.Register(g)
			})
			ar.Group(func(g chi.Router) {
				g.Use(d.RateLimit.RouteClass(models.ClassPasswordReset))
				d.Auth.RegisterPasswordReset(g)
			})
		})
	})

	if d.RateLimitAdmin != nil || d.Admin != nil {
		r.Group(func(g chi.Router) {
			g.Use(adminmw.RequireAdminToken(d.AdminToken, d.Logger))
			if d.RateLimitAdmin != nil {
				d.RateLimitAdmin.RegisterAdmin(g)
			}
			if d.Admin != nil {
				d.Admin.Register(g)
			}
		})
	}

	return r
}

func describeDevice(userAgent string) (string, string) {
	info := authdevice.Describe(userAgent)
	return info.DisplayName, info.Fingerprint
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
