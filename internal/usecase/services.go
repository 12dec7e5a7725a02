package usecase

import (
	"context"
	"time"

	"camera-relay/internal/domain"
)

// Warning annotations on retrieval results.
const (
	WarningStale       = "stale"
	WarningPlaceholder = "placeholder"
)

// Policy carries the relay timing windows. FreshWindow bounds the age a
// frame is considered live; StaleWindow is the longer threshold past
// which a served frame is flagged stale. SessionTTL/LimiterTTL drive
// the sweeper.
type Policy struct {
	FreshWindow time.Duration
	StaleWindow time.Duration
	SessionTTL  time.Duration
	LimiterTTL  time.Duration
}

type RelayService struct {
	repo   RelayRepository
	frames Limiter // token bucket on frame ingestion
	status Limiter // min-interval on heartbeat writes
	policy Policy

	now func() time.Time
}

func NewRelayService(repo RelayRepository, frames, status Limiter, policy Policy) *RelayService {
	return &RelayService{
		repo:   repo,
		frames: frames,
		status: status,
		policy: policy,
		now:    time.Now,
	}
}

type IngestResult struct {
	Frame      domain.Frame
	ReceivedAt time.Time
}

// IngestFrame validates, rate-limits, and stores one frame. The store
// write implicitly refreshes the Connection, so exactly one frame
// replacement and at most one connection upsert happen per call.
func (s *RelayService) IngestFrame(ctx context.Context, id string, payload string, captureTime time.Time) (IngestResult, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return IngestResult{}, err
	}
	if ok, retry := s.frames.Allow(id); !ok {
		return IngestResult{}, &domain.RateLimitedError{RetryAfter: retry}
	}
	if payload == "" {
		return IngestResult{}, domain.ErrMissingPayload
	}
	frame, err := s.repo.UpsertFrame(ctx, id, payload, captureTime)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Frame: frame, ReceivedAt: s.now()}, nil
}

type FrameResult struct {
	Frame      domain.Frame
	Connection domain.Connection
	Warning    string
	StaleFor   time.Duration
}

// LatestFrame serves the polling viewer. Decision cascade: fresh frame,
// then stale frame with a warning (old data beats no data: the viewer
// can overlay "reconnecting" on a stale picture but cannot render an
// absent one), then a placeholder for a live but frameless connection,
// then NotFound. The only NotFound case is no connection and no frame;
// that is when the viewer falls back to a waiting state.
func (s *RelayService) LatestFrame(ctx context.Context, id string) (FrameResult, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return FrameResult{}, err
	}
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return FrameResult{}, err
	}
	if snap.HasFrame {
		if !snap.HasConnection {
			// A sweep can race a frame write; re-create the connection
			// rather than surfacing the inconsistency.
			snap.Connection, err = s.repo.UpsertConnection(ctx, id, true, "")
			if err != nil {
				return FrameResult{}, err
			}
		}
		_ = s.repo.TouchAccess(ctx, id)
		res := FrameResult{Frame: snap.Frame, Connection: snap.Connection}
		if age := s.now().Sub(snap.Frame.Timestamp); age > s.policy.StaleWindow {
			res.Warning = WarningStale
			res.StaleFor = age
		}
		return res, nil
	}
	if snap.HasConnection && snap.Connection.Connected {
		_ = s.repo.TouchAccess(ctx, id)
		return FrameResult{
			Frame:      domain.Frame{Payload: domain.PlaceholderPayload, Timestamp: s.now()},
			Connection: snap.Connection,
			Warning:    WarningPlaceholder,
		}, nil
	}
	return FrameResult{}, &domain.NotFoundError{ID: id}
}

type StatusResult struct {
	Connected   bool
	Live        bool
	StreamURL   string
	FrameCount  int64
	LastUpdated time.Time
}

// Status answers "is a device connected" without frame transfer. Only an
// explicit heartbeat or a mobile origin may create or refresh the
// Connection; plain desktop polling must never spawn a phantom one.
func (s *RelayService) Status(ctx context.Context, id string, heartbeat, mobile bool) (StatusResult, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return StatusResult{}, err
	}
	if heartbeat || mobile {
		if ok, retry := s.status.Allow(id); !ok {
			return StatusResult{}, &domain.RateLimitedError{RetryAfter: retry}
		}
		if _, err := s.repo.UpsertConnection(ctx, id, true, ""); err != nil {
			return StatusResult{}, err
		}
	}
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return StatusResult{}, err
	}
	if !snap.HasConnection && !snap.HasFrame {
		return StatusResult{}, nil
	}
	if snap.HasConnection {
		_ = s.repo.TouchAccess(ctx, id)
	}
	res := StatusResult{
		Connected:   snap.HasConnection && snap.Connection.Connected,
		StreamURL:   snap.Connection.StreamURL,
		LastUpdated: snap.Connection.LastUpdated,
	}
	if snap.HasFrame {
		res.FrameCount = snap.Frame.FrameCount
	}
	if res.Connected && s.now().Sub(snap.Connection.LastUpdated) <= s.policy.FreshWindow {
		res.Live = true
	}
	return res, nil
}

// ListSessions is the admin diagnostic view.
func (s *RelayService) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	return s.repo.List(ctx)
}

// PurgeInvalid removes exactly the keys failing current validation.
func (s *RelayService) PurgeInvalid(ctx context.Context) ([]string, error) {
	return s.repo.PurgeInvalid(ctx)
}

// Purge removes one session; the id must itself be valid.
func (s *RelayService) Purge(ctx context.Context, id string) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return err
	}
	return s.repo.Purge(ctx, id)
}

// SessionCount reports stored sessions, for the active-sessions gauge.
func (s *RelayService) SessionCount() int {
	return s.repo.Len()
}

type SweepStats struct {
	Sessions int
	Buckets  int
}

// Sweep evicts idle store entries and rate-limit state in one pass.
func (s *RelayService) Sweep(ctx context.Context) (SweepStats, error) {
	n, err := s.repo.Sweep(ctx, s.policy.SessionTTL)
	if err != nil {
		return SweepStats{}, err
	}
	b := s.frames.Sweep(s.policy.LimiterTTL)
	b += s.status.Sweep(s.policy.LimiterTTL)
	return SweepStats{Sessions: n, Buckets: b}, nil
}
