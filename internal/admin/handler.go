package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"authgate/pkg/platform/audit"
	"authgate/pkg/platform/httputil"
	"authgate/pkg/platform/middleware/admin"
	"authgate/pkg/requestcontext"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Handler serves operator monitoring endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func New(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the routes. Callers wrap r with admin.RequireAdminToken.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/stats", h.HandleGetStats)
	r.Get("/admin/audit/recent", h.HandleGetRecentAuditEvents)
}

// HandleGetStats implements GET /admin/stats.
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get stats",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin stats retrieved",
		"request_id", requestcontext.RequestID(ctx),
		"admin_actor", admin.GetAdminActorID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, stats)
}

type AuditEventsResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

// HandleGetRecentAuditEvents implements GET /admin/audit/recent?limit=N.
// limit defaults to 50 and is capped at 500.
func (h *Handler) HandleGetRecentAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxAuditLimit)
		}
	}

	events, err := h.service.GetRecentAuditEvents(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get recent audit events",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin audit events retrieved",
		"request_id", requestcontext.RequestID(ctx),
		"count", len(events),
	)
	httputil.WriteJSON(w, http.StatusOK, &AuditEventsResponse{Events: events, Total: len(events)})
}
