package models

import "strings"

const (
	// KeyPrefixRoute prefixes per-client per-path keys.
	KeyPrefixRoute = "rate-limit:"
	// KeyPrefixResetEmail prefixes per-email password reset keys.
	KeyPrefixResetEmail = "reset-password-email:"
)

// NewRouteKey builds the key for one client on one request path.
func NewRouteKey(clientID, path string) string {
	return KeyPrefixRoute + clientID + ":" + path
}

// NewResetEmailKey builds the per-email reset quota key. Emails are
// lower-cased so case variants share one quota.
func NewResetEmailKey(email string) string {
	return KeyPrefixResetEmail + strings.ToLower(strings.TrimSpace(email))
}
