package memory

import (
	"context"
	"sync"
	"time"

	"camera-relay/internal/domain"
)

type sessionEntry struct {
	conn     domain.Connection
	hasConn  bool
	frame    domain.Frame
	hasFrame bool
}

// Store holds the two per-session maps (connections, frames) behind one
// RWMutex. Records are replaced as whole values, so a concurrent reader
// never observes a half-written Connection or Frame.
type Store struct {
	mu    sync.RWMutex
	items map[string]*sessionEntry

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		items: make(map[string]*sessionEntry, 64),
		now:   time.Now,
	}
}

func (s *Store) entryLocked(id string) *sessionEntry {
	e, ok := s.items[id]
	if !ok {
		e = &sessionEntry{}
		s.items[id] = e
	}
	return e
}

// UpsertConnection creates or refreshes the Connection for id; always
// advances lastUpdated, preserves createdAt across refreshes.
func (s *Store) UpsertConnection(ctx context.Context, id string, connected bool, streamURL string) (domain.Connection, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(id)
	conn := e.conn
	if !e.hasConn {
		conn.CreatedAt = now
		conn.LastAccessed = now
	}
	conn.Connected = connected
	if streamURL != "" {
		conn.StreamURL = streamURL
	}
	conn.LastUpdated = now
	e.conn = conn
	e.hasConn = true
	return conn, nil
}

// TouchAccess advances lastAccessed only; read paths use it to keep a
// session warm without implying new data arrived.
func (s *Store) TouchAccess(ctx context.Context, id string) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok && e.hasConn {
		conn := e.conn
		conn.LastAccessed = now
		e.conn = conn
	}
	return nil
}

// UpsertFrame replaces the Frame for id, incrementing frameCount from
// the prior value. A frame is strong evidence of liveness, so a missing
// Connection is created implicitly; frames are never left orphaned.
func (s *Store) UpsertFrame(ctx context.Context, id string, payload string, ts time.Time) (domain.Frame, error) {
	now := s.now()
	if ts.IsZero() {
		ts = now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(id)
	frame := domain.Frame{
		Payload:    payload,
		Timestamp:  ts,
		FrameCount: e.frame.FrameCount + 1,
	}
	e.frame = frame
	e.hasFrame = true
	conn := e.conn
	if !e.hasConn {
		conn.CreatedAt = now
		conn.LastAccessed = now
	}
	conn.Connected = true
	conn.LastUpdated = now
	e.conn = conn
	e.hasConn = true
	return frame, nil
}

// Get returns current snapshots of both records for id.
func (s *Store) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return domain.Snapshot{}, nil
	}
	return domain.Snapshot{
		Connection:    e.conn,
		HasConnection: e.hasConn,
		Frame:         e.frame,
		HasFrame:      e.hasFrame,
	}, nil
}

// Purge removes both records for id.
func (s *Store) Purge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// PurgeInvalid drains exactly the keys that fail current session id
// validation; recovery path for state that leaked in before validation
// was enforced upstream.
func (s *Store) PurgeInvalid(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id := range s.items {
		if domain.ValidateSessionID(id) != nil {
			delete(s.items, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

// List reports every stored key with its validation verdict.
func (s *Store) List(ctx context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SessionInfo, 0, len(s.items))
	for id, e := range s.items {
		info := domain.SessionInfo{
			ID:          id,
			Valid:       domain.ValidateSessionID(id) == nil,
			Connected:   e.hasConn && e.conn.Connected,
			HasFrame:    e.hasFrame,
			LastUpdated: e.conn.LastUpdated,
		}
		if e.hasFrame {
			info.FrameCount = e.frame.FrameCount
		}
		out = append(out, info)
	}
	return out, nil
}

// Sweep evicts sessions idle past olderThan, judged on the most recent
// of lastUpdated/lastAccessed (frame timestamp for conn-less entries).
// Bounds memory growth from abandoned sessions; not safety-critical.
func (s *Store) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.items {
		last := e.frame.Timestamp
		if e.hasConn {
			last = e.conn.LastUpdated
			if e.conn.LastAccessed.After(last) {
				last = e.conn.LastAccessed
			}
		}
		if last.Before(cutoff) {
			delete(s.items, id)
			evicted++
		}
	}
	return evicted, nil
}

// Len reports the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
