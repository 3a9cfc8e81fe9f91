package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"authgate/internal/admin"
	"authgate/internal/auth/adapters/devprovider"
	"authgate/internal/auth/email"
	authhandler "authgate/internal/auth/handler"
	authmetrics "authgate/internal/auth/metrics"
	authservice "authgate/internal/auth/service"
	userstore "authgate/internal/auth/store/user"
	authcleanup "authgate/internal/auth/workers/cleanup"
	jwttoken "authgate/internal/jwt_token"
	"authgate/internal/platform/config"
	"authgate/internal/platform/health"
	"authgate/internal/platform/logger"
	rlhandler "authgate/internal/ratelimit/handler"
	rlmetrics "authgate/internal/ratelimit/metrics"
	rlmiddleware "authgate/internal/ratelimit/middleware"
	rlservice "authgate/internal/ratelimit/service"
	"authgate/internal/ratelimit/store/window"
	rlcleanup "authgate/internal/ratelimit/workers/cleanup"
	httptransport "authgate/internal/transport/http"
	"authgate/pkg/platform/audit"
	"authgate/pkg/platform/middleware/request"
)

const (
	jwtIssuer   = "authgate"
	jwtAudience = "authgate-web"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rlCfg, err := cfg.RateLimitConfig()
	if err != nil {
		return err
	}

	log.Info("initializing authgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"sweep_interval", rlCfg.SweepInterval,
		"global_throttle_rps", rlCfg.GlobalRPS,
	)

	// Rate limiting
	limiterMetrics := rlmetrics.New()
	windowStore := window.New()
	limiter, err := rlservice.New(windowStore,
		rlservice.WithLogger(log),
		rlservice.WithConfig(rlCfg),
		rlservice.WithMetrics(limiterMetrics),
	)
	if err != nil {
		return err
	}
	sweeper := rlcleanup.New(windowStore,
		rlcleanup.WithLogger(log),
		rlcleanup.WithInterval(rlCfg.SweepInterval),
		rlcleanup.WithMetrics(limiterMetrics),
	)
	var globalThrottle *rate.Limiter
	if rlCfg.GlobalRPS > 0 {
		globalThrottle = rate.NewLimiter(rate.Limit(rlCfg.GlobalRPS), rlCfg.GlobalBurst)
	}

	// Auth
	auditBuffer := audit.NewBuffer(audit.DefaultBufferSize)
	auditLogger := audit.NewLogger(log, auditBuffer)
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtAudience, cfg.AccessTokenTTL)
	provider, err := devprovider.New(devprovider.Config{
		AppURL:              cfg.AppURL,
		RequireVerification: cfg.RequireEmailVerification,
		GoogleClientID:      cfg.GoogleClientID,
		GoogleRedirectURL:   cfg.GoogleRedirectURL,
		GoogleCodes:         googleCodes(cfg.DevGoogleCodes),
	}, tokens,
		devprovider.WithLogger(log),
		devprovider.WithMailer(email.NewLogMailer(log)),
	)
	if err != nil {
		return err
	}
	users := userstore.New()
	authSvc, err := authservice.New(provider, users, limiter,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithAuditLogger(auditLogger),
	)
	if err != nil {
		return err
	}
	authCleanup, err := authcleanup.New(
		[]authcleanup.Target{{Name: "dev_provider", Purger: provider}},
		authcleanup.WithCleanupInterval(cfg.AuthCleanupInterval),
		authcleanup.WithCleanupLogger(log),
	)
	if err != nil {
		return err
	}

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("rate_limit_sweeper", healthHandler.WorkerCheck(sweeper))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		RateLimit: rlmiddleware.New(limiter, log),
		Tokens:    tokens,
		Auth: authhandler.New(authSvc, log, authhandler.CookieConfig{
			Secure: cfg.CookieSecure,
		}, cfg.AppURL),
		Health:           healthHandler,
		RateLimitAdmin:   rlhandler.New(limiter, log),
		Admin:            admin.New(admin.NewService(provider, admin.CounterFunc(users.Count), windowStore, auditBuffer), log),
		AdminToken:       cfg.AdminToken,
		GlobalThrottle:   globalThrottle,
		RateLimitMetrics: limiterMetrics,
		RequestMetrics:   request.NewMetrics(),
		Metrics:          promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(sweeper.Start(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(authCleanup.Start(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func googleCodes(seeded map[string]config.DevGoogleIdentity) map[string]devprovider.GoogleIdentity {
	codes := make(map[string]devprovider.GoogleIdentity, len(seeded))
	for code, identity := range seeded {
		codes[code] = devprovider.GoogleIdentity{Email: identity.Email, FullName: identity.FullName}
	}
	return codes
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
