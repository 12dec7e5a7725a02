package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"camera-relay/internal/adapters/storage/memory"
	cfgpkg "camera-relay/internal/infrastructure/config"
	httpapi "camera-relay/internal/infrastructure/httpapi"
	obs "camera-relay/internal/infrastructure/observability"
	"camera-relay/internal/ratelimit"
	"camera-relay/internal/usecase"
)

func main() {
	fs := pflag.NewFlagSet("camera-relay", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	addr := fs.String("addr", "", "HTTP listen address (overrides config)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error (overrides config)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := obs.NewLogger(cfg.Log.Level)
	logger.Info().Str("addr", cfg.Server.Addr).Str("version", obs.Version).Msg("starting camera-relay")

	metrics := obs.NewMetrics()

	store := memory.NewStore()
	frames := ratelimit.NewLimiter(ratelimit.Config{
		Capacity:         cfg.Ingest.BucketCapacity,
		RefillPerSec:     cfg.Ingest.RefillPerSec,
		AdmitProbability: cfg.Ingest.AdmitProbability,
		WarmupRequests:   cfg.Ingest.WarmupRequests,
	})
	status := ratelimit.NewMinInterval(cfg.Ingest.StatusMinInterval)
	svc := usecase.NewRelayService(store, frames, status, usecase.Policy{
		FreshWindow: cfg.Relay.FreshWindow,
		StaleWindow: cfg.Relay.StaleWindow,
		SessionTTL:  cfg.Relay.SessionTTL,
		LimiterTTL:  cfg.Relay.LimiterTTL,
	})
	deps := &httpapi.Deps{Cfg: cfg, Logger: logger, Metrics: metrics, Svc: svc, Monitor: httpapi.NewMonitorHub()}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouterWithDeps(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sweeper: bounds memory growth from abandoned sessions and idle
	// rate-limit buckets.
	sweepEvery := cfg.Relay.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats, err := svc.Sweep(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("sweep failed")
					continue
				}
				metrics.EvictionsTotal.WithLabelValues("session").Add(float64(stats.Sessions))
				metrics.EvictionsTotal.WithLabelValues("bucket").Add(float64(stats.Buckets))
				metrics.ActiveSessions.Set(float64(svc.SessionCount()))
				if stats.Sessions > 0 || stats.Buckets > 0 {
					logger.Info().Int("sessions", stats.Sessions).Int("buckets", stats.Buckets).Msg("sweep evicted")
				}
			}
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("camera-relay stopped")
}
