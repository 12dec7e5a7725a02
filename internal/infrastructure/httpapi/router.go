package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"camera-relay/internal/infrastructure/config"
	obs "camera-relay/internal/infrastructure/observability"
	"camera-relay/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.RelayService
	Monitor *MonitorHub
}

func NewRouterWithDeps(d *Deps) http.Handler {
	return withRequestLog(d, withCORS(d.Cfg, buildBaseMux(d)))
}

func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "camera-relay",
			"version": obs.Version,
			"commit":  obs.Commit,
			"time":    time.Now().UTC(),
		})
	})

	// Relay endpoints: /relay/{sessionId}/(frame|status)
	mux.HandleFunc("/relay/", d.handleRelay)

	// Admin diagnostics and remediation
	mux.HandleFunc("/api/admin/sessions", d.handleAdminSessions)
	mux.HandleFunc("/api/admin/sessions/", d.handleAdminSessionByID)

	// Dashboard event feed
	mux.HandleFunc("/api/monitor/ws", d.Monitor.HandleWS)

	return mux
}

// withCORS applies the permissive cross-origin policy and disables
// caching on every response. Mobile producers and desktop viewers are
// served from different origins than the relay, and a cached frame is a
// correctness bug, not a performance win.
func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.Server.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Cache-Control", "no-store, max-age=0")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
