// Package ratelimit provides fixed-window admission control keyed by
// (route, client). A denial is an admission decision, not a call-path error:
// it happens before any external work starts.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Policy is a fixed window and its admission ceiling for one route.
type Policy struct {
	Window time.Duration
	Max    int
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the denied caller should wait for the window
	// to roll over. Zero when allowed.
	RetryAfter time.Duration
}

// Store applies the fixed-window rule for a composite key. Implementations
// must reset the counter once now-windowStart >= policy.Window and must never
// admit more than policy.Max requests per window.
type Store interface {
	Admit(ctx context.Context, key string, p Policy, now time.Time) (Decision, error)
}

// Limiter routes admission checks to per-route policies over a shared store.
type Limiter struct {
	store    Store
	policies map[string]Policy
	onDenied func(routeID string)
	now      func() time.Time
}

// New constructs a Limiter. onDenied is invoked for every denial so denials
// stay observable in metrics; it may be nil.
func New(store Store, policies map[string]Policy, onDenied func(routeID string)) *Limiter {
	return &Limiter{store: store, policies: policies, onDenied: onDenied, now: time.Now}
}

// Admit decides whether a request from clientKey may proceed on routeID.
// Routes without a configured policy are always admitted.
func (l *Limiter) Admit(ctx context.Context, routeID, clientKey string) (Decision, error) {
	p, ok := l.policies[routeID]
	if !ok || p.Max <= 0 || p.Window <= 0 {
		return Decision{Allowed: true}, nil
	}
	d, err := l.store.Admit(ctx, key(routeID, clientKey), p, l.now())
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit admit %s: %w", routeID, err)
	}
	if !d.Allowed && l.onDenied != nil {
		l.onDenied(routeID)
	}
	return d, nil
}

func key(routeID, clientKey string) string { return routeID + ":" + clientKey }
