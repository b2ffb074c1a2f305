package usecase

import "errors"

// Sentinel errors for the turn pipeline. Each maps to exactly one HTTP
// status at the controller boundary.
var (
	// Credential errors (401)
	ErrUnauthorized = errors.New("missing or malformed credential")
	ErrInvalidToken = errors.New("invalid token")

	// Access control errors
	ErrForbidden     = errors.New("agent is owned by another user")
	ErrAgentNotFound = errors.New("agent not found")

	// Input errors (400)
	ErrInvalidInput   = errors.New("invalid input")
	ErrContentBlocked = errors.New("message blocked by content filter")

	// Admission errors
	ErrRateLimited    = errors.New("rate limited")
	ErrQuotaExhausted = errors.New("provider quota exhausted")

	// Global circuit breaker (503)
	ErrServiceSuspended = errors.New("service suspended")
)
