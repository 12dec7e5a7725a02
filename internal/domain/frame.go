package domain

import "time"

// Frame is the single most recent payload for a session; no history is
// retained. FrameCount reflects store-arrival order, not capture order.
type Frame struct {
	Payload    string    `json:"frameData"`
	Timestamp  time.Time `json:"timestamp"`
	FrameCount int64     `json:"frameCount"`
}

// PlaceholderPayload is served when a device is connected but no frame
// has arrived yet, so viewers never special-case an absent image.
// 1x1 transparent PNG, base64.
const PlaceholderPayload = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
