package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	rlconfig "authgate/internal/ratelimit/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devJWTSigningKey = "dev-secret-key-change-in-production"
)

// DevGoogleIdentity is a seeded Google account for the development provider.
type DevGoogleIdentity struct {
	Email    string
	FullName string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	AdminToken  string

	// AppURL is the browser-facing origin used for redirects and email links.
	AppURL         string
	JWTSigningKey  string
	AccessTokenTTL time.Duration
	CookieSecure   bool

	RequireEmailVerification bool
	GoogleClientID           string
	GoogleRedirectURL        string
	DevGoogleCodes           map[string]DevGoogleIdentity

	// Zero keeps the general class default.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	SweepInterval     time.Duration
	GlobalThrottleRPS float64
	GlobalBurst       int

	AuthCleanupInterval time.Duration
	ShutdownTimeout     time.Duration
}

// FromEnv builds a Server config from environment variables, loading a .env
// file first when one exists so main stays lean.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:              getEnv("AUTHGATE_ADDR", ":8080"),
		Environment:       getEnv("APP_ENV", EnvDevelopment),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AdminToken:        os.Getenv("ADMIN_API_TOKEN"),
		AppURL:            strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", "dev-google-client"),
		GoogleRedirectURL: getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/callback"),
	}

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.CookieSecure, err = boolEnv("COOKIE_SECURE", cfg.Environment == EnvProduction); err != nil {
		return Server{}, err
	}
	if cfg.RequireEmailVerification, err = boolEnv("REQUIRE_EMAIL_VERIFICATION", false); err != nil {
		return Server{}, err
	}
	if cfg.RateLimitRequests, err = intEnv("RATE_LIMIT_REQUESTS", 0); err != nil {
		return Server{}, err
	}
	windowSeconds, err := intEnv("RATE_LIMIT_WINDOW", 0)
	if err != nil {
		return Server{}, err
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second
	if cfg.SweepInterval, err = durationEnv("RATE_LIMIT_SWEEP_INTERVAL", time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.GlobalThrottleRPS, err = floatEnv("GLOBAL_THROTTLE_RPS", 0); err != nil {
		return Server{}, err
	}
	if cfg.GlobalBurst, err = intEnv("GLOBAL_THROTTLE_BURST", 0); err != nil {
		return Server{}, err
	}
	if cfg.AuthCleanupInterval, err = durationEnv("AUTH_CLEANUP_INTERVAL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.DevGoogleCodes, err = parseDevGoogleCodes(os.Getenv("DEV_GOOGLE_CODES")); err != nil {
		return Server{}, err
	}

	if cfg.JWTSigningKey == "" {
		if cfg.Environment == EnvProduction {
			return Server{}, fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		cfg.JWTSigningKey = devJWTSigningKey
	}
	return cfg, nil
}

// RateLimitConfig applies the env overrides to the route class defaults.
func (s Server) RateLimitConfig() (*rlconfig.Config, error) {
	cfg := rlconfig.DefaultConfig()
	cfg.OverrideGeneral(s.RateLimitRequests, s.RateLimitWindow)
	if s.SweepInterval > 0 {
		cfg.SweepInterval = s.SweepInterval
	}
	cfg.GlobalRPS = s.GlobalThrottleRPS
	cfg.GlobalBurst = s.GlobalBurst
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDevGoogleCodes reads CODE=email[=Full Name] pairs separated by commas.
func parseDevGoogleCodes(raw string) (map[string]DevGoogleIdentity, error) {
	codes := map[string]DevGoogleIdentity{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return codes, nil
	}
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("DEV_GOOGLE_CODES entry must follow CODE=EMAIL[=NAME]: %q", item)
		}
		identity := DevGoogleIdentity{Email: parts[1]}
		if len(parts) == 3 {
			identity.FullName = parts[2]
		}
		codes[parts[0]] = identity
	}
	return codes, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}
