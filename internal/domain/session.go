package domain

import (
	"strings"
	"time"
)

// RejectReason explains why a session identifier was refused.
type RejectReason string

const (
	ReasonMissing         RejectReason = "missing"
	ReasonNullString      RejectReason = "null_string"
	ReasonUndefinedString RejectReason = "undefined_string"
	ReasonEmptyString     RejectReason = "empty_string"
	ReasonTooShort        RejectReason = "too_short"
)

// Session ids must be strictly longer than this.
const MinSessionIDLen = 10

// ValidateSessionID is the single admission predicate for relay keys.
// Every entry point (ingest, retrieve, status, admin) goes through it:
// an id accepted by one endpoint but rejected by another would silently
// partition per-session state. Pure function, no side effects.
func ValidateSessionID(id string) error {
	switch {
	case id == "":
		return &InvalidSessionIDError{ID: id, Reason: ReasonMissing}
	case strings.TrimSpace(id) == "":
		return &InvalidSessionIDError{ID: id, Reason: ReasonEmptyString}
	case id == "null":
		return &InvalidSessionIDError{ID: id, Reason: ReasonNullString}
	case id == "undefined":
		return &InvalidSessionIDError{ID: id, Reason: ReasonUndefinedString}
	case len(id) <= MinSessionIDLen:
		return &InvalidSessionIDError{ID: id, Reason: ReasonTooShort}
	}
	return nil
}

// Connection is the liveness record for one mobile-to-desktop pairing,
// independent of whether a frame has arrived yet.
type Connection struct {
	Connected    bool      `json:"connected"`
	StreamURL    string    `json:"streamUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastUpdated  time.Time `json:"lastUpdated"`
	LastAccessed time.Time `json:"lastAccessed"`
}
