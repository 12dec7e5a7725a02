// Package ratelimit gates frame ingestion per session without starving
// a device behaving reasonably under mobile-network jitter.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// Config tunes the token bucket. AdmitProbability is a deliberate
// leniency valve: rejecting too aggressively under jitter is worse for
// a soft-real-time relay than occasionally over-admitting.
type Config struct {
	Capacity         float64 // bucket size, tokens
	RefillPerSec     float64 // continuous refill rate
	AdmitProbability float64 // chance to admit on an empty bucket
	WarmupRequests   int64   // first N requests per id bypass the bucket
}

// DefaultConfig targets ~30 fps ingestion.
func DefaultConfig() Config {
	return Config{
		Capacity:         30,
		RefillPerSec:     10,
		AdmitProbability: 0.5,
		WarmupRequests:   100,
	}
}

type bucket struct {
	tokens      float64
	lastRefill  time.Time
	requests    int64
	lastRequest time.Time
}

// Limiter is a per-session token bucket with a warm-up grace period.
// Buckets allocate lazily; an unseen id is the normal initial state.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	buckets map[string]*bucket

	now    func() time.Time
	randFn func() float64
}

func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket, 64),
		now:     time.Now,
		randFn:  rand.Float64,
	}
}

// Allow reports whether a request for id is admitted. On rejection the
// returned duration is the expected wait until at least one token, so
// well-behaved clients can back off correctly.
func (l *Limiter) Allow(id string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[id]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, lastRefill: now}
		l.buckets[id] = b
	}
	b.requests++
	b.lastRequest = now
	// Opening burst of a new connection (handshake, auto-exposure) is
	// expected; never throttle it.
	if b.requests <= l.cfg.WarmupRequests {
		return true, 0
	}
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.cfg.RefillPerSec
		if b.tokens > l.cfg.Capacity {
			b.tokens = l.cfg.Capacity
		}
		b.lastRefill = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.randFn() < l.cfg.AdmitProbability {
		return true, 0
	}
	retry := time.Duration((1 - b.tokens) / l.cfg.RefillPerSec * float64(time.Second))
	if retry <= 0 {
		retry = time.Millisecond
	}
	return false, retry
}

// Sweep drops buckets idle past maxIdle and reports how many.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for id, b := range l.buckets {
		if b.lastRequest.Before(cutoff) {
			delete(l.buckets, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of tracked buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// MinInterval admits at most one request per interval per id. Simpler
// than a bucket; sufficient for coarse endpoints like status polling
// where burst tolerance is not required.
type MinInterval struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time

	now func() time.Time
}

func NewMinInterval(interval time.Duration) *MinInterval {
	return &MinInterval{
		interval: interval,
		last:     make(map[string]time.Time, 64),
		now:      time.Now,
	}
}

func (m *MinInterval) Allow(id string) (bool, time.Duration) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.last[id]; ok {
		if wait := m.interval - now.Sub(prev); wait > 0 {
			return false, wait
		}
	}
	m.last[id] = now
	return true, 0
}

func (m *MinInterval) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, t := range m.last {
		if t.Before(cutoff) {
			delete(m.last, id)
			evicted++
		}
	}
	return evicted
}
