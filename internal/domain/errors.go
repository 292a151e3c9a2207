package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLockHeld          = errors.New("lock already held")
	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
