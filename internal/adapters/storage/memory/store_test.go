package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestUpsertFrameMonotonicCount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		f, err := s.UpsertFrame(ctx, "session-abc-123", "payload", time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if f.FrameCount <= prev {
			t.Fatalf("frameCount %d not strictly greater than %d", f.FrameCount, prev)
		}
		prev = f.FrameCount
	}
	if prev != 5 {
		t.Fatalf("frameCount = %d, want 5", prev)
	}
}

func TestUpsertFrameCreatesConnection(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.UpsertFrame(ctx, "session-abc-123", "AAAA", time.Now()); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Get(ctx, "session-abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.HasConnection || !snap.Connection.Connected {
		t.Fatal("frame write must implicitly create a live connection")
	}
	if !snap.HasFrame || snap.Frame.Payload != "AAAA" {
		t.Fatalf("payload round-trip failed: %+v", snap.Frame)
	}
}

func TestUpsertConnectionPreservesCreatedAt(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	s.now = func() time.Time { return base }

	first, _ := s.UpsertConnection(ctx, "session-abc-123", true, "")
	base = base.Add(time.Minute)
	second, _ := s.UpsertConnection(ctx, "session-abc-123", true, "rtsp://cam")

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("createdAt must survive refreshes")
	}
	if !second.LastUpdated.After(first.LastUpdated) {
		t.Fatal("lastUpdated must advance on refresh")
	}
	if second.StreamURL != "rtsp://cam" {
		t.Fatalf("streamUrl = %q", second.StreamURL)
	}
}

func TestTouchAccessOnlyMovesLastAccessed(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.UpsertConnection(ctx, "session-abc-123", true, "")
	base = base.Add(time.Second)
	if err := s.TouchAccess(ctx, "session-abc-123"); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Get(ctx, "session-abc-123")
	if !snap.Connection.LastAccessed.Equal(base) {
		t.Fatal("lastAccessed must advance on touch")
	}
	if snap.Connection.LastUpdated.Equal(base) {
		t.Fatal("touch must not imply new data arrived")
	}
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	s := NewStore()
	snap, err := s.Get(context.Background(), "never-seen-session")
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasConnection || snap.HasFrame {
		t.Fatal("absent id must report empty snapshot")
	}
}

func TestPurgeInvalidDrainsLeakedKeys(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	// leaked-in state from before validation was enforced upstream
	s.UpsertFrame(ctx, "null", "x", time.Now())
	s.UpsertFrame(ctx, "undefined", "x", time.Now())
	s.UpsertFrame(ctx, "short", "x", time.Now())
	s.UpsertFrame(ctx, "session-abc-123", "x", time.Now())

	removed, err := s.PurgeInvalid(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 3 {
		t.Fatalf("removed %v, want the 3 invalid keys", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("store holds %d sessions, want 1", s.Len())
	}
	snap, _ := s.Get(ctx, "session-abc-123")
	if !snap.HasFrame {
		t.Fatal("valid session must survive the drain")
	}
}

func TestListReportsValidity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.UpsertFrame(ctx, "null", "x", time.Now())
	s.UpsertConnection(ctx, "session-abc-123", true, "")

	items, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("listed %d, want 2", len(items))
	}
	for _, it := range items {
		wantValid := it.ID == "session-abc-123"
		if it.Valid != wantValid {
			t.Fatalf("key %q valid=%v", it.ID, it.Valid)
		}
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.UpsertFrame(ctx, "idle-session-abc", "x", base)
	base = base.Add(10 * time.Minute)
	s.UpsertFrame(ctx, "live-session-abc", "x", base)

	n, err := s.Sweep(ctx, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	snap, _ := s.Get(ctx, "live-session-abc")
	if !snap.HasFrame {
		t.Fatal("recently updated session must survive the sweep")
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.UpsertFrame(ctx, "session-abc-123", "p", time.Now())
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap, err := s.Get(ctx, "session-abc-123")
				if err != nil {
					t.Error(err)
					return
				}
				// a snapshot with a frame must always carry a connection view
				if snap.HasFrame && !snap.HasConnection {
					t.Error("observed frame without connection")
					return
				}
			}
		}()
	}
	wg.Wait()

	snap, _ := s.Get(ctx, "session-abc-123")
	if snap.Frame.FrameCount != 800 {
		t.Fatalf("frameCount = %d, want 800", snap.Frame.FrameCount)
	}
}
