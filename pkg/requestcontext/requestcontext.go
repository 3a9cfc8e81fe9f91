// Package requestcontext stores per-request values shared by middleware,
// handlers and services.
package requestcontext

import (
	"context"

	id "authgate/pkg/domain"
)

type requestIDKey struct{}
type clientIDKey struct{}
type userAgentKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID, or "" when none was set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata records the resolved client identifier and User-Agent.
func WithClientMetadata(ctx context.Context, clientID, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIDKey{}, clientID)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey{}).(string); ok {
		return id
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

type accessTokenKey struct{}
type deviceNameKey struct{}
type deviceFingerprintKey struct{}

// WithAccessToken records the bearer or cookie access token presented by the client.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func AccessToken(ctx context.Context) string {
	if t, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return t
	}
	return ""
}

// WithDevice records the display name and fingerprint derived from the User-Agent.
func WithDevice(ctx context.Context, displayName, fingerprint string) context.Context {
	ctx = context.WithValue(ctx, deviceNameKey{}, displayName)
	return context.WithValue(ctx, deviceFingerprintKey{}, fingerprint)
}

func DeviceDisplayName(ctx context.Context) string {
	if n, ok := ctx.Value(deviceNameKey{}).(string); ok {
		return n
	}
	return ""
}

func DeviceFingerprint(ctx context.Context) string {
	if f, ok := ctx.Value(deviceFingerprintKey{}).(string); ok {
		return f
	}
	return ""
}

type userIDKey struct{}

// WithUserID records the user whose access token was verified for this request.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the verified user, or the nil ID for anonymous requests.
func UserID(ctx context.Context) id.UserID {
	if u, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return u
	}
	return id.UserID{}
}
