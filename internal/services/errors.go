// Package services holds the business logic of the analytics pipeline and
// the post stats counters. This file centralizes service-level error values
// so callers can match them with errors.Is; mapping to HTTP status codes
// happens in the handler layer.
package services

import "errors"

var (
	// ErrInvalidSlug is returned when a post slug is empty or contains
	// characters outside [a-z0-9_-].
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrInvalidUser is returned when a like arrives without a visitor hash.
	ErrInvalidUser = errors.New("missing user hash")

	// ErrInvalidDays is returned when a visit window is negative.
	ErrInvalidDays = errors.New("days must be zero or positive")

	// ErrIdempotencyConflict is returned when a concurrent request claimed
	// the same Idempotency-Key and its session could not be loaded.
	ErrIdempotencyConflict = errors.New("idempotency key in use")
)
