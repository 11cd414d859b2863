package remote

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds the outbound request rate using a token bucket. Bursts
// up to the capacity are allowed while the long-run rate stays at the
// refill rate. All remote clients share one Limiter.
type Limiter struct {
	capacity   int64
	tokens     int64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewLimiter creates a limiter allowing ratePerSecond sustained requests
// with bursts up to capacity. The bucket starts full.
func NewLimiter(capacity int64, ratePerSecond float64) *Limiter {
	return &Limiter{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: ratePerSecond,
		lastRefill: time.Now(),
	}
}

// Take attempts to consume one token without blocking.
func (l *Limiter) Take() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Take() {
			return nil
		}

		delay := l.timeUntilAvailable()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Remaining returns the tokens currently available.
func (l *Limiter) Remaining() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	return l.tokens
}

// timeUntilAvailable returns how long until one token will be available.
func (l *Limiter) timeUntilAvailable() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		return 0
	}
	seconds := float64(1-l.tokens) / l.refillRate
	return time.Duration(seconds * float64(time.Second))
}

// refillLocked adds tokens for the elapsed time. Caller holds the lock.
func (l *Limiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	add := int64(elapsed.Seconds() * l.refillRate)
	if add > 0 {
		l.tokens += add
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.lastRefill = now
	}
}
