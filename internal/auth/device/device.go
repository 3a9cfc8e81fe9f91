// Package device turns a User-Agent header into a display name and a stable
// fingerprint used to label sessions.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

const UnknownDevice = "Unknown Device"

// Info describes the client device behind a request.
type Info struct {
	DisplayName string
	Fingerprint string
}

// Describe parses userAgent once and returns both derived values.
func Describe(userAgent string) Info {
	if strings.TrimSpace(userAgent) == "" {
		return Info{DisplayName: UnknownDevice}
	}
	ua := useragent.New(userAgent)
	return Info{
		DisplayName: displayName(ua),
		Fingerprint: fingerprint(ua),
	}
}

// ParseUserAgent returns "Browser on OS", or the mobile platform in place of
// the OS for handsets.
func ParseUserAgent(userAgent string) string {
	return Describe(userAgent).DisplayName
}

// Fingerprint hashes browser family, major version, OS and form factor.
// The client IP is excluded.
func Fingerprint(userAgent string) string {
	return Describe(userAgent).Fingerprint
}

func displayName(ua *useragent.UserAgent) string {
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

func fingerprint(ua *useragent.UserAgent) string {
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")

	formFactor := "desktop"
	if ua.Mobile() {
		formFactor = "mobile"
	}

	parts := []string{
		orUnknown(strings.ToLower(strings.TrimSpace(browser))),
		orUnknown(major),
		orUnknown(strings.ToLower(strings.TrimSpace(ua.OS()))),
		formFactor,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
