package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"authgate/internal/auth/models"
	"authgate/internal/auth/service"
	rlmiddleware "authgate/internal/ratelimit/middleware"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/httputil"
	"authgate/pkg/platform/middleware/requesttime"
	"authgate/pkg/requestcontext"
	"authgate/pkg/secrets"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	OAuthStateCookie   = "oauth_state"

	defaultRefreshTTL = 30 * 24 * time.Hour
	oauthStateTTL     = 10 * time.Minute

	redirectDashboard   = "/dashboard"
	redirectMissingCode = "/login?error=missing_code"
	redirectOAuthFailed = "/login?error=oauth_failed"
)

// Service is the subset of the auth use cases the HTTP layer calls.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error)
	GoogleAuthURL(ctx context.Context, state string) (string, error)
	GoogleCallback(ctx context.Context, code string) (*models.AuthResult, error)
	RequestPasswordReset(ctx context.Context, req *models.ResetPasswordRequest) error
	ResetPassword(ctx context.Context, req *models.UpdatePasswordRequest) error
	CurrentUser(ctx context.Context, accessToken string) (*models.CurrentUser, error)
	Logout(ctx context.Context, accessToken string) error
}

// CookieConfig controls the session cookies set on login.
type CookieConfig struct {
	Secure     bool
	RefreshTTL time.Duration
}

// Handler serves the /api/auth endpoints.
type Handler struct {
	auth    Service
	logger  *slog.Logger
	cookies CookieConfig
	appURL  string
}

// New creates an auth Handler. appURL prefixes OAuth callback redirects.
func New(auth Service, logger *slog.Logger, cookies CookieConfig, appURL string) *Handler {
	if cookies.RefreshTTL <= 0 {
		cookies.RefreshTTL = defaultRefreshTTL
	}
	return &Handler{
		auth:    auth,
		logger:  logger,
		cookies: cookies,
		appURL:  strings.TrimRight(appURL, "/"),
	}
}

// Register mounts the session routes. The caller applies the auth route limit.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Get("/session", h.HandleSession)
	r.Post("/auto-login-after-reset", h.HandleAutoLoginAfterReset)
	r.Get("/google", h.HandleGoogle)
	r.Get("/callback", h.HandleCallback)
}

// RegisterPasswordReset mounts the reset routes, which carry their own limit.
func (h *Handler) RegisterPasswordReset(r chi.Router) {
	r.Post("/reset-password", h.HandleResetPassword)
	r.Post("/update-password", h.HandleUpdatePassword)
}

// HandleRegister implements POST /api/auth/register.
//
// Input: { "email": "user@example.com", "password": "Secret123" }
// Output: 201 { "message": "Registration successful. ..." }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.auth.Register(ctx, req); err != nil {
		h.logFailure(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &models.MessageResponse{Message: models.MsgRegistered})
}

// HandleLogin implements POST /api/auth/login and sets the session cookies.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		h.logFailure(ctx, "login failed", err)
		httputil.WriteError(w, err)
		return
	}

	h.setSessionCookies(w, r, result)
	httputil.WriteJSON(w, http.StatusOK, models.NewLoginResponse(result.User))
}

// HandleLogout implements POST /api/auth/logout. Cookies are cleared even
// when the provider call fails.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.auth.Logout(ctx, requestcontext.AccessToken(ctx))
	h.clearSessionCookies(w, r)
	if err != nil {
		h.logFailure(ctx, "logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: models.MsgLoggedOut})
}

// HandleSession implements GET /api/auth/session. Anonymous callers get
// {"user": null}.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := h.auth.CurrentUser(ctx, requestcontext.AccessToken(ctx))
	if err != nil {
		h.logFailure(ctx, "session lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, models.NewSessionResponse(current))
}

// HandleAutoLoginAfterReset implements POST /api/auth/auto-login-after-reset.
// It is called after update-password succeeds and confirms the session the
// provider opened; it never creates one.
func (h *Handler) HandleAutoLoginAfterReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, err := h.auth.CurrentUser(ctx, requestcontext.AccessToken(ctx))
	if err != nil {
		h.logFailure(ctx, "auto login after reset failed", err)
		httputil.WriteError(w, err)
		return
	}
	if current == nil || current.User == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, models.MsgNoSessionAfterReset))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewLoginResponse(current.User))
}

// HandleGoogle implements GET /api/auth/google: it stores a random state in
// a short-lived cookie and redirects to the provider.
func (h *Handler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := secrets.Generate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	authURL, err := h.auth.GoogleAuthURL(ctx, state)
	if err != nil {
		h.logFailure(ctx, "google auth url failed", err)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     OAuthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback implements GET /api/auth/callback?code=&state=.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	h.expireCookie(w, r, OAuthStateCookie, "/api/auth")

	if code == "" {
		h.redirect(w, r, redirectMissingCode)
		return
	}
	stateCookie, err := r.Cookie(OAuthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		h.logger.WarnContext(ctx, "oauth state mismatch",
			"request_id", requestcontext.RequestID(ctx),
		)
		h.redirect(w, r, redirectOAuthFailed)
		return
	}

	result, err := h.auth.GoogleCallback(ctx, code)
	if err != nil {
		h.logFailure(ctx, "oauth callback failed", err)
		h.redirect(w, r, redirectOAuthFailed)
		return
	}

	h.setSessionCookies(w, r, result)
	h.redirect(w, r, redirectDashboard)
}

// HandleResetPassword implements POST /api/auth/reset-password. The reply is
// the same whether or not the account exists.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.ResetPasswordRequest](w, r, h.logger)
	if !ok {
		return
	}

	err := h.auth.RequestPasswordReset(ctx, req)
	var limited *service.RateLimitedError
	switch {
	case errors.As(err, &limited):
		retryAfter := rlmiddleware.SetDenialHeaders(w, limited.Decision, requesttime.Now(ctx))
		httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ResetEmailThrottledResponse{
			Error:      models.MsgResetEmailThrottle,
			RetryAfter: retryAfter,
		})
		return
	case err != nil:
		h.logFailure(ctx, "password reset request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: models.MsgResetRequested})
}

// HandleUpdatePassword implements POST /api/auth/update-password.
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.UpdatePasswordRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.auth.ResetPassword(ctx, req); err != nil {
		h.logFailure(ctx, "password update failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: models.MsgPasswordUpdated})
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, r *http.Request, result *models.AuthResult) {
	accessMaxAge := int(time.Until(result.ExpiresAt).Seconds())
	if accessMaxAge <= 0 {
		accessMaxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    result.AccessToken,
		Path:     "/",
		MaxAge:   accessMaxAge,
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
	if result.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     RefreshTokenCookie,
			Value:    result.RefreshToken,
			Path:     "/",
			MaxAge:   int(h.cookies.RefreshTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secure(r),
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	h.expireCookie(w, r, AccessTokenCookie, "/")
	h.expireCookie(w, r, RefreshTokenCookie, "/")
}

func (h *Handler) expireCookie(w http.ResponseWriter, r *http.Request, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.appURL+path, http.StatusFound)
}

func (h *Handler) secure(r *http.Request) bool {
	return h.cookies.Secure || isHTTPS(r)
}

// logFailure logs client errors at Warn and everything else at Error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{"error", err, "request_id", requestcontext.RequestID(ctx)}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
