package quota

import (
	"context"
	"log"
	"sync"
	"time"
)

// Defaults match the free-tier allowance of the hosted analyzer model.
const (
	DefaultMaxCalls = 2
	DefaultPeriod   = time.Minute
)

// Governor paces calls to the metered analyzer model. One instance guards the
// whole process; every analyzer call site must pass through Acquire before
// dialing the model.
//
// The pacing is deliberately conservative: instead of allowing bursts of N
// calls, successive calls are spaced evenly at period/N. The single mutex
// serializes the wait-then-stamp of lastCall across concurrent acquirers so
// none of them observes a stale instant. The mutex is never held across the
// model call itself.
type Governor struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCall    time.Time
}

// New builds a governor allowing maxCalls evenly spaced calls per period.
func New(maxCalls int, period time.Duration) *Governor {
	if maxCalls < 1 {
		maxCalls = 1
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Governor{minInterval: period / time.Duration(maxCalls)}
}

// MinInterval reports the enforced spacing between governed calls.
func (g *Governor) MinInterval() time.Duration {
	return g.minInterval
}

// Acquire blocks until one call to the governed model may be issued. It
// returns early only when ctx is done, in which case no slot is consumed.
func (g *Governor) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() {
		if wait := g.minInterval - time.Since(g.lastCall); wait > 0 {
			log.Printf("[governor] pacing analyzer call, waiting %s", wait.Round(time.Millisecond))
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	g.lastCall = time.Now()
	return nil
}
