package ratelimit

import (
	"testing"
	"time"
)

func frozen(l *Limiter) *time.Time {
	base := time.Now()
	l.now = func() time.Time { return base }
	return &base
}

func TestWarmupBurstNeverRejectsFirstW(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.randFn = func() float64 { return 1 } // disable the leniency valve
	frozen(l)

	allowed, rejected := 0, 0
	for i := 0; i < 150; i++ {
		ok, retry := l.Allow("burst-session-1")
		if i < 100 && !ok {
			t.Fatalf("request %d rejected during warm-up", i)
		}
		if ok {
			allowed++
		} else {
			rejected++
			if retry <= 0 {
				t.Fatalf("rejection must carry a positive retry-after, got %v", retry)
			}
		}
	}
	// after 100 warm-up requests the full bucket (30) drains, the rest reject
	if allowed != 130 || rejected != 20 {
		t.Fatalf("allowed=%d rejected=%d, want 130/20", allowed, rejected)
	}
}

func TestRefillReadmits(t *testing.T) {
	l := NewLimiter(Config{Capacity: 1, RefillPerSec: 10, AdmitProbability: 0, WarmupRequests: 0})
	base := frozen(l)

	if ok, _ := l.Allow("refill-session-1"); !ok {
		t.Fatal("full bucket must admit")
	}
	ok, retry := l.Allow("refill-session-1")
	if ok {
		t.Fatal("empty bucket with p=0 must reject")
	}
	if retry <= 0 || retry > 100*time.Millisecond {
		t.Fatalf("retry-after should be about one token at 10/s, got %v", retry)
	}

	*base = base.Add(150 * time.Millisecond)
	if ok, _ := l.Allow("refill-session-1"); !ok {
		t.Fatal("refill should have restored a token")
	}
}

func TestLeniencyValveAdmitsOnEmptyBucket(t *testing.T) {
	l := NewLimiter(Config{Capacity: 1, RefillPerSec: 0.001, AdmitProbability: 1, WarmupRequests: 0})
	frozen(l)
	l.randFn = func() float64 { return 0.5 }

	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow("lenient-session-1"); !ok {
			t.Fatalf("p=1 must always admit, rejected at %d", i)
		}
	}
}

func TestUnseenSessionAllocatesLazily(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	// absence of state is the normal initial condition
	if ok, _ := l.Allow("never-seen-session"); !ok {
		t.Fatal("first request for a new id must pass")
	}
	if l.Len() != 1 {
		t.Fatalf("bucket count = %d, want 1", l.Len())
	}
}

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	base := frozen(l)
	l.Allow("idle-session-1")
	l.Allow("idle-session-2")

	*base = base.Add(10 * time.Minute)
	if n := l.Sweep(5 * time.Minute); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if l.Len() != 0 {
		t.Fatalf("buckets remain after sweep: %d", l.Len())
	}
}

func TestMinInterval(t *testing.T) {
	m := NewMinInterval(25 * time.Millisecond)
	base := time.Now()
	m.now = func() time.Time { return base }

	if ok, _ := m.Allow("status-session-1"); !ok {
		t.Fatal("first request must pass")
	}
	ok, wait := m.Allow("status-session-1")
	if ok {
		t.Fatal("second request inside the interval must be rejected")
	}
	if wait <= 0 || wait > 25*time.Millisecond {
		t.Fatalf("wait = %v, want (0, 25ms]", wait)
	}

	base = base.Add(30 * time.Millisecond)
	if ok, _ := m.Allow("status-session-1"); !ok {
		t.Fatal("request after the interval must pass")
	}

	// independent keys do not interfere
	if ok, _ := m.Allow("status-session-2"); !ok {
		t.Fatal("fresh id must pass")
	}

	base = base.Add(10 * time.Minute)
	if n := m.Sweep(5 * time.Minute); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
}
