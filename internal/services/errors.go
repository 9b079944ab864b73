package services

import "errors"

// Common service errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("record already exists")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidRecoveryCode = errors.New("invalid or expired recovery code")
)
