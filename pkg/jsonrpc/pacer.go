package jsonrpc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces request dispatches of one client at least interval apart.
// Callers queue on a single slot, so the dispatch timestamp is read and
// written by one goroutine at a time.
type Pacer struct {
	slot     chan struct{}
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
}

func NewPacer(interval time.Duration) *Pacer {
	if interval < 0 {
		interval = 0
	}
	return &Pacer{
		slot:     make(chan struct{}, 1),
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Dispatch blocks until the caller may send, runs send, and records the
// dispatch time before send returns its result. The gap is measured from
// dispatch to dispatch, so response latency does not shorten it.
func (p *Pacer) Dispatch(ctx context.Context, send func(dispatchedAt time.Time, waited time.Duration)) error {
	start := time.Now()
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		<-p.slot
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// limiter refuses up front when the deadline is closer than the next token
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	// the bucket refills from reservation time; enforce the floor against the
	// recorded dispatch as well
	if !p.last.IsZero() {
		if gap := p.interval - time.Since(p.last); gap > 0 {
			timer := time.NewTimer(gap)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				<-p.slot
				return ctx.Err()
			}
		}
	}
	p.last = time.Now()
	dispatchedAt := p.last
	<-p.slot

	send(dispatchedAt, dispatchedAt.Sub(start))
	return nil
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration { return p.interval }
