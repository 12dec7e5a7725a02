package domain

import "time"

// Snapshot is a whole-value read of both per-session records. Absence
// of either is a normal state, not an error.
type Snapshot struct {
	Connection    Connection
	HasConnection bool
	Frame         Frame
	HasFrame      bool
}

// SessionInfo is the admin/diagnostic view of one stored key.
type SessionInfo struct {
	ID          string    `json:"id"`
	Valid       bool      `json:"valid"`
	Connected   bool      `json:"connected"`
	HasFrame    bool      `json:"hasFrame"`
	FrameCount  int64     `json:"frameCount,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}
