package ratelimit

import (
	"sync"
	"time"
)

// defaultMaxKeys bounds the bucket map. A new key beyond it first sweeps idle buckets and, if
// none are idle, evicts the least recently seen one.
const defaultMaxKeys = 4096

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Every key shares the same capacity and refill rate.
type Limiter struct {
	mu         sync.Mutex
	m          map[string]*bucket
	capacity   float64
	refillRate float64 // tokens per second
	idleTTL    time.Duration
	maxKeys    int
	now        func() time.Time
}

func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:          make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillPerSec,
		idleTTL:    10 * time.Minute,
		maxKeys:    defaultMaxKeys,
		now:        time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		if len(l.m) >= l.maxKeys && l.sweepLocked(now) == 0 {
			l.evictOldestLocked()
		}
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.refillRate)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets idle long enough to have refilled completely.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.now())
}

func (l *Limiter) sweepLocked(now time.Time) int {
	n := 0
	for k, b := range l.m {
		if now.Sub(b.last) > l.idleTTL {
			delete(l.m, k)
			n++
		}
	}
	return n
}

func (l *Limiter) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for k, b := range l.m {
		if !found || b.last.Before(at) {
			oldest, at, found = k, b.last, true
		}
	}
	if found {
		delete(l.m, oldest)
	}
}
