package config

import (
	"fmt"
	"time"

	"authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
)

// Config holds the quota for every route class.
type Config struct {
	Classes map[models.RouteClass]models.Policy

	// SweepInterval is how often the cleanup worker prunes expired entries.
	SweepInterval time.Duration

	// Global per-process throttle; GlobalRPS <= 0 disables it.
	GlobalRPS   float64
	GlobalBurst int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Classes: map[models.RouteClass]models.Policy{
			models.ClassGeneral:       {Limit: 60, Window: time.Minute},
			models.ClassAuth:          {Limit: 5, Window: time.Minute},
			models.ClassPasswordReset: {Limit: 10, Window: time.Hour},
			models.ClassResetEmail:    {Limit: 3, Window: time.Hour},
		},
		SweepInterval: time.Minute,
		GlobalRPS:     0,
		GlobalBurst:   0,
	}
}

// OverrideGeneral replaces the general class quota. Zero values keep the
// current setting so a single env var can be overridden alone.
func (c *Config) OverrideGeneral(limit int, window time.Duration) {
	p := c.Classes[models.ClassGeneral]
	if limit != 0 {
		p.Limit = limit
	}
	if window != 0 {
		p.Window = window
	}
	c.Classes[models.ClassGeneral] = p
}

// PolicyFor returns the quota configured for class.
func (c *Config) PolicyFor(class models.RouteClass) (models.Policy, error) {
	p, ok := c.Classes[class]
	if !ok {
		return models.Policy{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown route class %q", class))
	}
	if err := p.Validate(); err != nil {
		return models.Policy{}, err
	}
	return p, nil
}

// Validate checks every configured class so a bad override fails at startup.
func (c *Config) Validate() error {
	for class, p := range c.Classes {
		if !class.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown route class %q", class))
		}
		if err := p.Validate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("route class %s", class))
		}
	}
	if c.GlobalRPS > 0 && c.GlobalBurst <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "global throttle burst must be positive when rps is set")
	}
	return nil
}
