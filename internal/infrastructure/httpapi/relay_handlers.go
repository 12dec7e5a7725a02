package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"camera-relay/internal/domain"
	"camera-relay/internal/usecase"
)

// One parameterized implementation per operation; the timing windows
// and limiter constants come from config, not from route variants.

type ingestRequest struct {
	FrameData   string          `json:"frameData"`
	Timestamp   int64           `json:"timestamp,omitempty"`   // ms epoch, client clock
	CaptureTime int64           `json:"captureTime,omitempty"` // ms epoch, preferred over timestamp
	Quality     json.RawMessage `json:"quality,omitempty"`     // echoed back, informational only
}

// handleRelay dispatches /relay/{sessionId}/(frame|status).
func (d *Deps) handleRelay(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/relay/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	id, resource := parts[0], parts[1]
	switch resource {
	case "frame":
		switch r.Method {
		case http.MethodPost:
			d.handleIngestFrame(w, r, id)
		case http.MethodGet:
			d.handleGetFrame(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET/POST", nil)
		}
	case "status":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
			return
		}
		d.handleStatus(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	}
}

// handleIngestFrame accepts one frame from the mobile producer.
// POST /relay/{sessionId}/frame
func (d *Deps) handleIngestFrame(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	var body ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body", nil)
		return
	}
	payload := extractPayload(body.FrameData)

	captureMs := body.CaptureTime
	if captureMs == 0 {
		captureMs = body.Timestamp
	}
	var captureTime time.Time
	if captureMs > 0 {
		captureTime = time.UnixMilli(captureMs)
	}

	res, err := d.Svc.IngestFrame(r.Context(), id, payload, captureTime)
	if err != nil {
		d.writeRelayError(w, "ingest", err)
		return
	}

	d.Metrics.FramesIngested.Inc()
	d.Metrics.IngestLatency.Observe(time.Since(start).Seconds())
	d.Metrics.ActiveSessions.Set(float64(d.Svc.SessionCount()))
	if res.Frame.FrameCount == 1 {
		d.Monitor.Broadcast(RelayEvent{Type: "connection_up", SessionID: id})
	}
	d.Monitor.Broadcast(RelayEvent{Type: "frame_ingested", SessionID: id, FrameCount: res.Frame.FrameCount})

	out := map[string]any{
		"success":      true,
		"sessionId":    id,
		"frameCount":   res.Frame.FrameCount,
		"timestamp":    res.ReceivedAt.UnixMilli(),
		"processingMs": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if len(body.Quality) > 0 {
		out["quality"] = body.Quality
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetFrame serves the latest frame (or placeholder) to the
// polling viewer. GET /relay/{sessionId}/frame
func (d *Deps) handleGetFrame(w http.ResponseWriter, r *http.Request, id string) {
	res, err := d.Svc.LatestFrame(r.Context(), id)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			d.Metrics.FramesServed.WithLabelValues("miss").Inc()
		}
		d.writeRelayError(w, "retrieve", err)
		return
	}

	result := "fresh"
	if res.Warning != "" {
		result = res.Warning
	}
	d.Metrics.FramesServed.WithLabelValues(result).Inc()

	out := map[string]any{
		"connected":  true,
		"frameData":  res.Frame.Payload,
		"timestamp":  res.Frame.Timestamp.UnixMilli(),
		"frameCount": res.Frame.FrameCount,
	}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	if res.Warning == usecase.WarningStale {
		out["staleSeconds"] = int64(res.StaleFor.Seconds())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleStatus answers the liveness poll and accepts heartbeats.
// GET /relay/{sessionId}/status?heartbeat=true|false
func (d *Deps) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	hb := r.URL.Query().Get("heartbeat")
	heartbeat := hb == "true" || hb == "1"
	mobile := isMobileUA(r.UserAgent())

	res, err := d.Svc.Status(r.Context(), id, heartbeat, mobile)
	if err != nil {
		d.writeRelayError(w, "status", err)
		return
	}
	if heartbeat || mobile {
		d.Metrics.HeartbeatsTotal.Inc()
		d.Metrics.ActiveSessions.Set(float64(d.Svc.SessionCount()))
		if res.Connected {
			d.Monitor.Broadcast(RelayEvent{Type: "heartbeat", SessionID: id})
		}
	}

	out := map[string]any{
		"connected": res.Connected,
		"live":      res.Live,
		"timestamp": time.Now().UnixMilli(),
	}
	if res.Connected {
		if res.StreamURL != "" {
			out["streamUrl"] = res.StreamURL
		}
		out["frameCount"] = res.FrameCount
		out["lastUpdated"] = res.LastUpdated.UnixMilli()
	}
	writeJSON(w, http.StatusOK, out)
}

// extractPayload strips a data-URL MIME prefix if present; otherwise
// the payload is stored verbatim and round-trips untouched.
func extractPayload(frameData string) string {
	if strings.HasPrefix(frameData, "data:") {
		if i := strings.Index(frameData, ","); i >= 0 {
			return frameData[i+1:]
		}
	}
	return frameData
}

func isMobileUA(ua string) bool {
	ua = strings.ToLower(ua)
	for _, tok := range []string{"android", "iphone", "ipad", "ipod", "mobile"} {
		if strings.Contains(ua, tok) {
			return true
		}
	}
	return false
}
