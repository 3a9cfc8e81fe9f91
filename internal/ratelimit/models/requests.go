package models

import (
	"strings"

	dErrors "authgate/pkg/domain-errors"
)

// ResetKeyRequest is the admin body for clearing one key.
type ResetKeyRequest struct {
	Key string `json:"key"`
}

func (r *ResetKeyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Key = strings.TrimSpace(r.Key)
}

func (r *ResetKeyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Key == "" {
		return dErrors.New(dErrors.CodeValidation, "key is required")
	}
	if len(r.Key) > 512 {
		return dErrors.New(dErrors.CodeValidation, "key must be 512 characters or less")
	}
	return nil
}
