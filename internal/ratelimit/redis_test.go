package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/meeting-summarizer/internal/ratelimit"
)

func newRedisStore(t *testing.T) (*ratelimit.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewRedisStore(client), mr
}

func TestRedisStore_AdmitsUpToCeiling(t *testing.T) {
	t.Parallel()
	s, _ := newRedisStore(t)
	p := ratelimit.Policy{Window: time.Minute, Max: 2}
	now := time.Now()

	d, err := s.Admit(context.Background(), "general:ip", p, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = s.Admit(context.Background(), "general:ip", p, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = s.Admit(context.Background(), "general:ip", p, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestRedisStore_WindowExpiryResets(t *testing.T) {
	t.Parallel()
	s, mr := newRedisStore(t)
	p := ratelimit.Policy{Window: time.Minute, Max: 1}
	now := time.Now()

	d, err := s.Admit(context.Background(), "k", p, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = s.Admit(context.Background(), "k", p, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)

	d, err = s.Admit(context.Background(), "k", p, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	s, _ := newRedisStore(t)
	p := ratelimit.Policy{Window: time.Minute, Max: 1}
	now := time.Now()

	d, _ := s.Admit(context.Background(), "email:a", p, now)
	assert.True(t, d.Allowed)
	d, _ = s.Admit(context.Background(), "email:a", p, now)
	assert.False(t, d.Allowed)
	d, _ = s.Admit(context.Background(), "email:b", p, now)
	assert.True(t, d.Allowed)
}
