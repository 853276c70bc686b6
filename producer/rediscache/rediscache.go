// Package rediscache provides read-through Redis caches for the producer
// repositories.
//
// The caches are shared with the other backend services, so the key and
// value formats must not change. A cache that can not reach Redis degrades
// to querying the inner repository directly.
package rediscache

import (
	"context"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the lifetime of cached entries when no other TTL is
// specified.
const DefaultTTL = 5 * time.Minute

// mget performs a batched lookup of the given keys.
//
// The result is index-aligned with keys; entries that are not cached are
// nil. ok is false if Redis itself could not be queried, in which case the
// caller should treat every key as uncached.
func mget(
	ctx context.Context,
	client redis.Cmdable,
	logger logging.Logger,
	keys []string,
) (values []interface{}, ok bool) {
	if client == nil {
		return nil, false
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		logging.Log(
			logger,
			"unable to read from cache: %s",
			err,
		)

		return nil, false
	}

	return values, true
}

// set caches a value. Failures are logged; the value is simply fetched again
// next time.
func set(
	ctx context.Context,
	client redis.Cmdable,
	logger logging.Logger,
	key string,
	value []byte,
	ttl time.Duration,
) {
	if client == nil {
		return
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	if err := client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Log(
			logger,
			"unable to cache %s: %s",
			key,
			err,
		)
	}
}
