package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/httputil"
	"authgate/pkg/platform/middleware/admin"
	"authgate/pkg/requestcontext"
)

type Service interface {
	Reset(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Peek(ctx context.Context, key string) (*models.Entry, bool)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterAdmin mounts operator routes. Callers wrap r with
// admin.RequireAdminToken.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/rate-limit/reset", h.HandleReset)
	r.Delete("/admin/rate-limit", h.HandleClear)
	r.Get("/admin/rate-limit/entries", h.HandleGetEntry)
}

// HandleReset implements POST /admin/rate-limit/reset.
// Input: { "key": "rate-limit:192.168.1.1:/api/auth/login" }
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[models.ResetKeyRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Reset(ctx, req.Key); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin reset rate limit key",
		"actor_id", admin.GetAdminActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear implements DELETE /admin/rate-limit.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear rate limits",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.WarnContext(ctx, "admin cleared all rate limits",
		"actor_id", admin.GetAdminActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetEntry implements GET /admin/rate-limit/entries?key=...
// Output: { "key": "...", "count": 3, "window_reset_at": "..." }
func (h *Handler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "key query parameter is required"))
		return
	}

	entry, ok := h.service.Peek(ctx, key)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no active window for key"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.EntryResponse{
		Key:           entry.Key,
		Count:         entry.Count,
		WindowResetAt: entry.WindowResetAt,
	})
}
