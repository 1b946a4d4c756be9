package service

import "errors"

// Outcome errors of the auth and profile operations. Handlers map each to
// an HTTP status; anything else is an internal failure.
var (
	ErrValidation         = errors.New("missing required fields")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrExpiredCode        = errors.New("verification code expired")
)
