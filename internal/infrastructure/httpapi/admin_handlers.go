package httpapi

import (
	"net/http"
	"strings"
)

// handleAdminSessions lists every stored key with its validation
// verdict, so operators can see state that leaked in before validation
// was tightened. GET /api/admin/sessions
func (d *Deps) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	items, err := d.Svc.ListSessions(r.Context())
	if err != nil {
		d.writeRelayError(w, "admin", err)
		return
	}
	invalid := 0
	for _, it := range items {
		if !it.Valid {
			invalid++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":   items,
		"total":   len(items),
		"invalid": invalid,
	})
}

// handleAdminSessionByID handles remediation:
//
//	DELETE /api/admin/sessions/invalid  — purge exactly the keys failing validation
//	DELETE /api/admin/sessions/{id}     — explicit single-session cleanup
func (d *Deps) handleAdminSessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/sessions/")
	if id == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use DELETE", nil)
		return
	}
	if id == "invalid" {
		removed, err := d.Svc.PurgeInvalid(r.Context())
		if err != nil {
			d.writeRelayError(w, "admin", err)
			return
		}
		d.Metrics.ActiveSessions.Set(float64(d.Svc.SessionCount()))
		d.Monitor.Broadcast(RelayEvent{Type: "sessions_purged", SessionID: "*"})
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "count": len(removed)})
		return
	}
	if err := d.Svc.Purge(r.Context(), id); err != nil {
		d.writeRelayError(w, "admin", err)
		return
	}
	d.Metrics.ActiveSessions.Set(float64(d.Svc.SessionCount()))
	d.Monitor.Broadcast(RelayEvent{Type: "sessions_purged", SessionID: id})
	w.WriteHeader(http.StatusNoContent)
}
