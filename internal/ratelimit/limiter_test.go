package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/meeting-summarizer/internal/ratelimit"
)

func TestMemoryStore_AdmitsUpToCeiling(t *testing.T) {
	t.Parallel()
	s := ratelimit.NewMemoryStore()
	p := ratelimit.Policy{Window: time.Minute, Max: 3}
	now := time.Now()

	for i := 0; i < 3; i++ {
		d, err := s.Admit(context.Background(), "k", p, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d, err := s.Admit(context.Background(), "k", p, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
}

func TestMemoryStore_WindowRollover(t *testing.T) {
	t.Parallel()
	s := ratelimit.NewMemoryStore()
	p := ratelimit.Policy{Window: time.Minute, Max: 1}
	start := time.Now()

	d, err := s.Admit(context.Background(), "k", p, start)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = s.Admit(context.Background(), "k", p, start.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	// Exactly at the boundary the window resets.
	d, err = s.Admit(context.Background(), "k", p, start.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	s := ratelimit.NewMemoryStore()
	p := ratelimit.Policy{Window: time.Minute, Max: 1}
	now := time.Now()

	d, _ := s.Admit(context.Background(), "summarize:1.2.3.4", p, now)
	assert.True(t, d.Allowed)
	d, _ = s.Admit(context.Background(), "summarize:1.2.3.4", p, now)
	assert.False(t, d.Allowed)
	d, _ = s.Admit(context.Background(), "summarize:5.6.7.8", p, now)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, s.Len())
}

func TestLimiter_UnknownRouteAlwaysAllowed(t *testing.T) {
	t.Parallel()
	l := ratelimit.New(ratelimit.NewMemoryStore(), map[string]ratelimit.Policy{}, nil)
	for i := 0; i < 50; i++ {
		d, err := l.Admit(context.Background(), "nope", "c")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestLimiter_DeniedCallbackFires(t *testing.T) {
	t.Parallel()
	denied := map[string]int{}
	l := ratelimit.New(ratelimit.NewMemoryStore(),
		map[string]ratelimit.Policy{"email": {Window: time.Hour, Max: 1}},
		func(routeID string) { denied[routeID]++ })

	d, err := l.Admit(context.Background(), "email", "c1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, denied)

	d, err = l.Admit(context.Background(), "email", "c1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)
	assert.Equal(t, 1, denied["email"])
}

func TestLimiter_ClientsDoNotShareWindows(t *testing.T) {
	t.Parallel()
	l := ratelimit.New(ratelimit.NewMemoryStore(),
		map[string]ratelimit.Policy{"summarize": {Window: 2 * time.Minute, Max: 5}}, nil)

	for i := 0; i < 5; i++ {
		d, err := l.Admit(context.Background(), "summarize", "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Admit(context.Background(), "summarize", "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = l.Admit(context.Background(), "summarize", "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
}
