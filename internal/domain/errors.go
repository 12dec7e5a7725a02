package domain

import (
	"errors"
	"fmt"
	"time"
)

// InvalidSessionIDError is a caller error: the received value and the
// reject reason are enough for client-side auto-remediation.
type InvalidSessionIDError struct {
	ID     string
	Reason RejectReason
}

func (e *InvalidSessionIDError) Error() string {
	return fmt.Sprintf("invalid session id %q: %s", e.ID, e.Reason)
}

// RateLimitedError is expected-and-routine; callers back off for
// RetryAfter and re-send.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// NotFoundError means no connection and no frame exist for the id.
// On retrieval this is a normal transient state, not logged as an error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "session not found: " + e.ID
}

// ErrMissingPayload rejects an ingestion call with an empty frame body.
var ErrMissingPayload = errors.New("missing frame payload")
