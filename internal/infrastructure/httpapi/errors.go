package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"camera-relay/internal/domain"
)

type apiErrorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string, message string, details interface{}) {
	if code == "" {
		code = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErrorBody{Error: apiError{Code: code, Message: message, Details: details}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRelayError maps the relay error taxonomy to HTTP. Caller errors
// carry enough detail for client-side auto-remediation; only Internal
// logs at error severity (done by the caller).
func (d *Deps) writeRelayError(w http.ResponseWriter, endpoint string, err error) {
	var invalid *domain.InvalidSessionIDError
	if errors.As(err, &invalid) {
		d.Metrics.InvalidIDRejected.WithLabelValues(string(invalid.Reason)).Inc()
		writeError(w, http.StatusBadRequest, "INVALID_SESSION_ID", invalid.Error(), map[string]any{
			"sessionId": invalid.ID,
			"reason":    string(invalid.Reason),
		})
		return
	}
	var limited *domain.RateLimitedError
	if errors.As(err, &limited) {
		d.Metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
		retryMs := limited.RetryAfter.Milliseconds()
		if retryMs <= 0 {
			retryMs = 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.FormatInt((retryMs+999)/1000, 10))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":      apiError{Code: "RATE_LIMITED", Message: limited.Error()},
			"retryAfter": retryMs,
		})
		return
	}
	if errors.Is(err, domain.ErrMissingPayload) {
		writeError(w, http.StatusBadRequest, "MISSING_PAYLOAD", "frameData is required", nil)
		return
	}
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		// Normal transient state: the viewer should fall back to its
		// waiting-for-device UI and stop polling frames.
		writeJSON(w, http.StatusNotFound, map[string]any{
			"connected": false,
			"sessionId": notFound.ID,
		})
		return
	}
	d.Logger.Error().Str("endpoint", endpoint).Err(err).Msg("relay internal error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
