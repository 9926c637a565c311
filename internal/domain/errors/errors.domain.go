// internal/domain/errors/errors.domain.go
package errors

import "errors"

// Standard Sentinel Errors
// These allow callers (CLI, transport, workers) to map internal logic to a
// stable error kind without parsing messages.

var (
	// Not-found errors
	ErrLoadNotFound     = errors.New("load not found")
	ErrMatchNotFound    = errors.New("match not found")
	ErrCapacityNotFound = errors.New("capacity record not found")
	ErrCarrierNotFound  = errors.New("carrier not found")
	ErrRuleNotFound     = errors.New("matching rule not found")

	// Conflict errors
	// ErrMatchConflict means the load already has a confirmed or completed
	// match; the losing side of a concurrent confirmation race sees it too.
	ErrMatchConflict         = errors.New("load already has a confirmed match")
	ErrInvalidTransition     = errors.New("invalid match status transition")
	ErrInsufficientCapacity  = errors.New("carrier capacity cannot cover the load weight")

	// Validation / authorization errors
	ErrInvalidInput    = errors.New("invalid input arguments")
	ErrRejectionReason = errors.New("rejecting a match requires a reason")
	ErrUnauthorized    = errors.New("broker does not own this relationship")
)
