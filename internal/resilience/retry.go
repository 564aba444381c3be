// Package resilience wraps unreliable external calls with bounded retry,
// exponential backoff, and deadline enforcement.
package resilience

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// Policy bounds the retry behavior of a single call path. Immutable;
// construct once per adapter.
type Policy struct {
	// MaxAttempts is the number of retries after the initial attempt.
	// MaxAttempts=2 means at most 3 invocations.
	MaxAttempts int
	// BaseDelay seeds the exponential schedule: the sleep before attempt n
	// (n >= 1) is BaseDelay * 2^n, so base=500ms yields 1s, 2s, 4s.
	BaseDelay time.Duration
	// Jitter randomizes each delay by up to 10% when enabled. Off by default:
	// the delay sequence stays a pure function of the attempt index, at the
	// known cost of synchronized retries under correlated failures.
	Jitter bool
}

// OnAttempt observes every attempt, successful or not, with its latency.
type OnAttempt func(index int, latency time.Duration, err error)

// Do runs op under the policy. The first attempt starts immediately. Failures
// are classified; non-retryable kinds and exhausted budgets surface the
// classified error unchanged. Success at any attempt returns at once.
func Do[T any](ctx context.Context, p Policy, onAttempt OnAttempt, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0
	wrapped := func() error {
		start := time.Now()
		v, err := op(ctx)
		idx := attempt
		attempt++
		if onAttempt != nil {
			onAttempt(idx, time.Since(start), err)
		}
		if err == nil {
			out = v
			return nil
		}
		ce := domain.Classify(err)
		if !ce.Retryable {
			return backoff.Permanent(error(ce))
		}
		return ce
	}

	if err := backoff.Retry(wrapped, backoff.WithContext(p.backOff(), ctx)); err != nil {
		var ce *domain.ClassifiedError
		if !errors.As(err, &ce) {
			ce = domain.Classify(err)
		}
		return out, ce
	}
	return out, nil
}

func (p Policy) backOff() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	// First retry sleeps 2*base, doubling from there (base=500ms -> 1s, 2s, 4s).
	expo.InitialInterval = 2 * p.BaseDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	if p.Jitter {
		expo.RandomizationFactor = 0.1
	}
	expo.MaxInterval = 5 * time.Minute
	expo.MaxElapsedTime = 0 // bounded by attempts, not wall clock
	expo.Reset()
	retries := p.MaxAttempts
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(expo, uint64(retries))
}
