package models

import (
	"strings"

	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/validation"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,password"`
}

func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if _, err := NewEmail(r.Email); err != nil {
		return err
	}
	return validation.Validate(r)
}

// LoginRequest only checks that a password was supplied; strength rules
// apply when a password is set, not when it is presented.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if _, err := NewEmail(r.Email); err != nil {
		return err
	}
	return validation.Validate(r)
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ResetPasswordRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *ResetPasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	_, err := NewEmail(r.Email)
	return err
}

type UpdatePasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

func (r *UpdatePasswordRequest) Normalize() {
	if r == nil {
		return
	}
	r.Token = strings.TrimSpace(r.Token)
}

func (r *UpdatePasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if _, err := NewResetToken(r.Token); err != nil {
		return err
	}
	return validation.Validate(r)
}
