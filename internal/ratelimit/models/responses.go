package models

import "time"

// RateLimitExceededResponse is the 429 body. It carries no counters; those
// are only exposed through the X-RateLimit-* headers.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// ServiceOverloadedResponse is the 503 body written by the global throttle.
type ServiceOverloadedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// EntryResponse describes a stored entry for operators.
type EntryResponse struct {
	Key           string    `json:"key"`
	Count         int       `json:"count"`
	WindowResetAt time.Time `json:"window_reset_at"`
}
