// Package health serves the status, liveness and readiness probes.
package health

import (
	"fmt"
	"maps"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"authgate/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	cacheControl = "no-cache, no-store, must-revalidate"
)

// CheckFunc returns nil when the dependency is healthy.
type CheckFunc func() error

type Handler struct {
	startTime   time.Time
	environment string
	now         func() time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		now:         time.Now,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named check to the status and readiness probes.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts the probes; main mounts it under /api.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness answers 200 while the process is serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", cacheControl)
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness returns 503 when any registered check fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	services, healthy := h.runChecks()

	response := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(services))}
	for name, svc := range services {
		if svc.Status == statusHealthy {
			response.Checks[name] = "up"
		} else {
			response.Checks[name] = "down: " + svc.Error
		}
	}

	w.Header().Set("Cache-Control", cacheControl)
	if !healthy {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

type ServiceStatus struct {
	Status         string `json:"status"`
	ResponseTimeMs int64  `json:"responseTime"`
	Error          string `json:"error,omitempty"`
}

type StatusResponse struct {
	Status        string                   `json:"status"`
	Message       string                   `json:"message,omitempty"`
	Version       string                   `json:"version"`
	Environment   string                   `json:"environment"`
	UptimeSeconds int64                    `json:"uptime"`
	Timestamp     string                   `json:"timestamp"`
	Services      map[string]ServiceStatus `json:"services"`
}

// HandleStatus implements GET /api/health: 200 "healthy", or 503 "degraded"
// when a check fails. Responses are never cached.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	services, healthy := h.runChecks()
	now := h.now()

	response := StatusResponse{
		Status:        statusHealthy,
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Services:      services,
	}

	w.Header().Set("Cache-Control", cacheControl)
	if !healthy {
		response.Status = statusDegraded
		response.Message = "Some services are unhealthy"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) runChecks() (map[string]ServiceStatus, bool) {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make(map[string]ServiceStatus, len(checks))
	healthy := true
	for _, name := range names {
		start := time.Now()
		err := checks[name]()
		svc := ServiceStatus{Status: statusHealthy, ResponseTimeMs: time.Since(start).Milliseconds()}
		if err != nil {
			svc.Status = "unhealthy"
			svc.Error = err.Error()
			healthy = false
		}
		services[name] = svc
	}
	return services, healthy
}

// Heartbeat is a background worker that records when it last ran.
type Heartbeat interface {
	LastRun() time.Time
	Interval() time.Duration
}

// StaleAfter is how many missed intervals mark a worker as stalled.
const StaleAfter = 3

// WorkerCheck fails once the worker has not run for StaleAfter intervals.
// A worker that has never run gets the same grace period from startup.
func (h *Handler) WorkerCheck(worker Heartbeat) CheckFunc {
	return func() error {
		limit := time.Duration(StaleAfter) * worker.Interval()
		last := worker.LastRun()
		if last.IsZero() {
			last = h.startTime
		}
		if age := h.now().Sub(last); age > limit {
			return fmt.Errorf("last run %s ago", age.Truncate(time.Second))
		}
		return nil
	}
}
