package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/meeting-summarizer/internal/app"
)

func TestBuildReadinessChecks_NilHandles(t *testing.T) {
	t.Parallel()
	dbCheck, redisCheck := app.BuildReadinessChecks(nil, nil)
	assert.Nil(t, dbCheck)
	assert.Nil(t, redisCheck)
}

func TestBuildReadinessChecks_RedisPing(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, redisCheck := app.BuildReadinessChecks(nil, client)
	require.NotNil(t, redisCheck)
	assert.NoError(t, redisCheck(context.Background()))

	mr.Close()
	assert.Error(t, redisCheck(context.Background()))
}
