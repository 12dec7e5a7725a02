package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry          *prometheus.Registry
	ActiveSessions    prometheus.Gauge
	FramesIngested    prometheus.Counter
	FramesServed      *prometheus.CounterVec
	RateLimitedTotal  *prometheus.CounterVec
	EvictionsTotal    *prometheus.CounterVec
	IngestLatency     prometheus.Histogram
	HeartbeatsTotal   prometheus.Counter
	InvalidIDRejected *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "camera_relay",
			Name:      "active_sessions",
			Help:      "Number of sessions currently held in the store",
		}),
		FramesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "frames_ingested_total",
			Help:      "Total frames accepted from mobile producers",
		}),
		FramesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "frames_served_total",
			Help:      "Total retrieval responses by result",
		}, []string{"result"}), // fresh|stale|placeholder|miss
		RateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by admission control",
		}, []string{"endpoint"}),
		EvictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "evictions_total",
			Help:      "Total entries evicted by the sweeper",
		}, []string{"kind"}), // session|bucket
		IngestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "camera_relay",
			Name:      "ingest_latency_seconds",
			Help:      "Server-side frame ingestion latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		HeartbeatsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "heartbeats_total",
			Help:      "Total liveness signals accepted",
		}),
		InvalidIDRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camera_relay",
			Name:      "invalid_session_ids_total",
			Help:      "Total requests rejected by session id validation",
		}, []string{"reason"}),
	}
	r.MustRegister(
		m.ActiveSessions, m.FramesIngested, m.FramesServed, m.RateLimitedTotal,
		m.EvictionsTotal, m.IngestLatency, m.HeartbeatsTotal, m.InvalidIDRejected,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
