// Package ratelimit paces repeated operations against a remote site.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between successive operations, with
// optional random jitter on top of the interval. Unlike a token bucket it
// never lets operations burst; the tool issues one search per tick and the
// point is simply not to hammer the site with back-to-back identical queries.
// Safe for concurrent use.
type Pacer struct {
	interval time.Duration
	jitter   float64 // fraction of interval, 0.0 to 1.0

	mu   sync.Mutex
	last time.Time
}

// NewPacer returns a pacer with the given minimum interval. A non-positive
// interval produces a pacer that never blocks. Jitter outside [0,1] is clamped.
func NewPacer(interval time.Duration, jitter float64) *Pacer {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Pacer{interval: interval, jitter: jitter}
}

// Wait blocks until at least the configured interval (plus jitter) has passed
// since the previous Wait returned, or until ctx is canceled. The first call
// never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	var sleep time.Duration
	if !p.last.IsZero() {
		gap := p.interval
		if p.jitter > 0 {
			gap += time.Duration(rand.Float64() * p.jitter * float64(p.interval))
		}
		sleep = time.Until(p.last.Add(gap))
	}
	p.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
	return nil
}
