package usecase

import (
	"context"
	"time"

	"camera-relay/internal/domain"
)

type RelayRepository interface {
	UpsertConnection(ctx context.Context, id string, connected bool, streamURL string) (domain.Connection, error)
	TouchAccess(ctx context.Context, id string) error
	UpsertFrame(ctx context.Context, id string, payload string, ts time.Time) (domain.Frame, error)
	Get(ctx context.Context, id string) (domain.Snapshot, error)
	Purge(ctx context.Context, id string) error
	PurgeInvalid(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]domain.SessionInfo, error)
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)
	Len() int
}

// Limiter is the admission gate in front of a relay endpoint.
type Limiter interface {
	Allow(id string) (bool, time.Duration)
	Sweep(maxIdle time.Duration) int
}
