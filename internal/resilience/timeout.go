package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// WithTimeout races op against a deadline of d. If the timer fires first, a
// Timeout-kind classified error is returned immediately and the loser's
// context is cancelled so an in-flight request is actually aborted; whatever
// op eventually returns is discarded. A late success is wasted work, accepted
// for bounded latency.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := op(tctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-tctx.Done():
		var zero T
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return zero, &domain.ClassifiedError{
				Kind:      domain.KindTimeout,
				Retryable: true,
				Err:       fmt.Errorf("%w: timed out after %s", domain.ErrUpstreamTimeout, d),
			}
		}
		return zero, tctx.Err()
	}
}
