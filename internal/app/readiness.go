package app

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db and redis readiness checks. A check is
// nil when its backend is not configured, so /readyz leaves it out.
func BuildReadinessChecks(pool Pinger, rdb redis.UniversalClient) (dbCheck, redisCheck func(ctx context.Context) error) {
	if pool != nil {
		dbCheck = func(ctx context.Context) error { return pool.Ping(ctx) }
	}
	if rdb != nil {
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return dbCheck, redisCheck
}
