// Package devprovider is an in-memory identity provider for local runs and
// tests. It implements the auth service's provider port with bcrypt password
// hashes, HS256 access tokens, single-use reset tokens and a fixed table of
// Google authorization codes.
package devprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"authgate/internal/auth/email"
	"authgate/internal/auth/models"
	"authgate/internal/auth/ports"
	jwttoken "authgate/internal/jwt_token"
	id "authgate/pkg/domain"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/middleware/requesttime"
	"authgate/pkg/platform/sentinel"
	"authgate/pkg/secrets"
)

const (
	DefaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32

	devGoogleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
)

var _ ports.AuthenticationService = (*Provider)(nil)

// GoogleIdentity is what a seeded Google authorization code resolves to.
type GoogleIdentity struct {
	Email     string
	FullName  string
	AvatarURL string
}

type Config struct {
	AppURL              string
	RequireVerification bool
	ResetTokenTTL       time.Duration
	GoogleClientID      string
	GoogleRedirectURL   string
	// GoogleCodes maps authorization codes to identities. Codes are reusable.
	GoogleCodes map[string]GoogleIdentity
}

type account struct {
	user         models.User
	passwordHash string
}

type session struct {
	userID    id.UserID
	expiresAt time.Time
}

type resetToken struct {
	email     models.Email
	expiresAt time.Time
	used      bool
}

// Provider is safe for concurrent use.
type Provider struct {
	mu          sync.Mutex
	accounts    map[models.Email]*account
	byID        map[id.UserID]models.Email
	sessions    map[string]*session // by access token JTI
	resetTokens map[string]*resetToken

	cfg    Config
	tokens *jwttoken.JWTService
	mailer email.Mailer
	logger *slog.Logger
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMailer replaces the default log mailer.
func WithMailer(m email.Mailer) Option {
	return func(p *Provider) {
		p.mailer = m
	}
}

func New(cfg Config, tokens *jwttoken.JWTService, opts ...Option) (*Provider, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	p := &Provider{
		accounts:    make(map[models.Email]*account),
		byID:        make(map[id.UserID]models.Email),
		sessions:    make(map[string]*session),
		resetTokens: make(map[string]*resetToken),
		cfg:         cfg,
		tokens:      tokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.mailer == nil {
		p.mailer = email.NewLogMailer(p.logger)
	}
	return p, nil
}

func (p *Provider) Register(ctx context.Context, addr models.Email, password models.Password) (*models.User, error) {
	hash, err := secrets.Hash(password.Plain())
	if err != nil {
		return nil, err
	}
	now := requesttime.Now(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[addr]; exists {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	acct := &account{
		user: models.User{
			ID:            id.NewUserID(),
			Email:         addr,
			EmailVerified: !p.cfg.RequireVerification,
			FullName:      email.DeriveNameFromEmail(addr.String()),
			CreatedAt:     now,
		},
		passwordHash: hash,
	}
	p.accounts[addr] = acct
	p.byID[acct.user.ID] = addr

	user := acct.user
	return &user, nil
}

// VerifyEmail marks addr as confirmed.
func (p *Provider) VerifyEmail(_ context.Context, addr models.Email) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[addr]
	if !ok {
		return fmt.Errorf("account: %w", sentinel.ErrNotFound)
	}
	acct.user.EmailVerified = true
	return nil
}

func (p *Provider) Login(ctx context.Context, addr models.Email, password string) (*models.AuthResult, error) {
	p.mu.Lock()
	acct, ok := p.accounts[addr]
	var hash string
	var user models.User
	if ok {
		hash = acct.passwordHash
		user = acct.user
	}
	p.mu.Unlock()

	if !ok || hash == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(password, hash); err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, dErrors.New(dErrors.CodeForbidden, "email not confirmed")
	}
	return p.openSession(ctx, &user)
}

func (p *Provider) GoogleAuthURL(_ context.Context, state string) (string, error) {
	q := url.Values{}
	q.Set("client_id", p.cfg.GoogleClientID)
	q.Set("redirect_uri", p.cfg.GoogleRedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return devGoogleAuthURL + "?" + q.Encode(), nil
}

// ExchangeGoogleCode resolves a seeded code, creating the account on first use.
func (p *Provider) ExchangeGoogleCode(ctx context.Context, code string) (*models.AuthResult, error) {
	identity, ok := p.cfg.GoogleCodes[code]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "unknown authorization code")
	}
	addr, err := models.NewEmail(identity.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "seeded google identity has invalid email")
	}
	now := requesttime.Now(ctx)

	p.mu.Lock()
	acct, exists := p.accounts[addr]
	if !exists {
		acct = &account{user: models.User{
			ID:        id.NewUserID(),
			Email:     addr,
			CreatedAt: now,
		}}
		p.accounts[addr] = acct
		p.byID[acct.user.ID] = addr
	}
	acct.user.EmailVerified = true
	if identity.FullName != "" {
		acct.user.FullName = identity.FullName
	}
	if identity.AvatarURL != "" {
		acct.user.AvatarURL = identity.AvatarURL
	}
	user := acct.user
	p.mu.Unlock()

	return p.openSession(ctx, &user)
}

// RequestPasswordReset mails a reset link. Unknown emails return
// sentinel.ErrNotFound; the caller decides whether to reveal that.
func (p *Provider) RequestPasswordReset(ctx context.Context, addr models.Email) error {
	p.mu.Lock()
	_, ok := p.accounts[addr]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("account: %w", sentinel.ErrNotFound)
	}

	token, err := secrets.GenerateHex(resetTokenBytes)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.resetTokens[token] = &resetToken{
		email:     addr,
		expiresAt: requesttime.Now(ctx).Add(p.cfg.ResetTokenTTL),
	}
	p.mu.Unlock()

	return p.mailer.SendPasswordReset(ctx, addr.String(), email.ResetLink(p.cfg.AppURL, token))
}

func (p *Provider) ValidateResetToken(ctx context.Context, token models.ResetToken) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.liveResetToken(token.String(), requesttime.Now(ctx))
	return err
}

// ResetPassword consumes the token and replaces the hash. Existing sessions
// for the account are ended.
func (p *Provider) ResetPassword(ctx context.Context, token models.ResetToken, password models.Password) error {
	hash, err := secrets.Hash(password.Plain())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	rt, err := p.liveResetToken(token.String(), requesttime.Now(ctx))
	if err != nil {
		return err
	}
	acct, ok := p.accounts[rt.email]
	if !ok {
		return fmt.Errorf("account: %w", sentinel.ErrNotFound)
	}
	rt.used = true
	acct.passwordHash = hash
	for jti, s := range p.sessions {
		if s.userID == acct.user.ID {
			delete(p.sessions, jti)
		}
	}
	return nil
}

func (p *Provider) GetSession(ctx context.Context, accessToken string) (*models.Session, error) {
	claims, err := p.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[claims.ID]
	if !ok || !requesttime.Now(ctx).Before(s.expiresAt) {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "session ended")
	}
	addr, ok := p.byID[s.userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "session user removed")
	}
	user := p.accounts[addr].user
	return &models.Session{User: &user, AccessToken: accessToken, ExpiresAt: s.expiresAt}, nil
}

func (p *Provider) Logout(_ context.Context, accessToken string) error {
	claims, err := p.tokens.ValidateToken(accessToken)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[claims.ID]; !ok {
		return fmt.Errorf("session: %w", sentinel.ErrNotFound)
	}
	delete(p.sessions, claims.ID)
	return nil
}

// PurgeExpired drops ended sessions and reset tokens that are used or past
// their expiry. It returns the number of records removed.
func (p *Provider) PurgeExpired(ctx context.Context) (int, error) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for jti, s := range p.sessions {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !now.Before(s.expiresAt) {
			delete(p.sessions, jti)
			removed++
		}
	}
	for token, rt := range p.resetTokens {
		if rt.used || !now.Before(rt.expiresAt) {
			delete(p.resetTokens, token)
			removed++
		}
	}
	return removed, nil
}

// Stats reports current record counts.
func (p *Provider) Stats() (accounts, sessions, resetTokens int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts), len(p.sessions), len(p.resetTokens)
}

func (p *Provider) openSession(ctx context.Context, user *models.User) (*models.AuthResult, error) {
	issued, err := p.tokens.GenerateAccessToken(ctx, user.ID, id.NewSessionID(), user.Email.String())
	if err != nil {
		return nil, err
	}
	refresh, err := p.tokens.CreateRefreshToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create refresh token")
	}

	p.mu.Lock()
	p.sessions[issued.JTI] = &session{userID: user.ID, expiresAt: issued.ExpiresAt}
	p.mu.Unlock()

	return &models.AuthResult{
		User:         user,
		AccessToken:  issued.Token,
		RefreshToken: refresh,
		ExpiresAt:    issued.ExpiresAt,
	}, nil
}

// liveResetToken must be called with p.mu held.
func (p *Provider) liveResetToken(token string, now time.Time) (*resetToken, error) {
	rt, ok := p.resetTokens[strings.TrimSpace(token)]
	switch {
	case !ok:
		return nil, fmt.Errorf("reset token: %w", sentinel.ErrNotFound)
	case rt.used:
		return nil, fmt.Errorf("reset token: %w", sentinel.ErrAlreadyUsed)
	case !now.Before(rt.expiresAt):
		return nil, fmt.Errorf("reset token: %w", sentinel.ErrExpired)
	}
	return rt, nil
}
