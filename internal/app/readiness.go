package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// BuildReadinessChecks returns ping functions for the optional backing
// services. A nil handle yields a nil check, which the readiness handler
// treats as "not configured" rather than a failure.
func BuildReadinessChecks(pool *pgxpool.Pool, rdb *redis.Client) (dbCheck, redisCheck func(context.Context) error) {
	if pool != nil {
		dbCheck = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	if rdb != nil {
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return dbCheck, redisCheck
}
