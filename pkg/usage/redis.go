package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// tryIncrementScript performs the window reset check and conditional
// increment in a single atomic step on the Redis side. Counters are hashes
// with fields "n" (count) and "ws" (window start, unix seconds).
//
// KEYS[1] counter key
// ARGV[1] window start for now (unix seconds, 0 for lifetime)
// ARGV[2] limit (-1 for unlimited)
// ARGV[3] TTL in seconds (0 to keep the key forever)
//
// Returns {1, newCount} on success, {0, currentCount} on denial.
var tryIncrementScript = redis.NewScript(`
local ws = redis.call('HGET', KEYS[1], 'ws')
if not ws or tonumber(ws) < tonumber(ARGV[1]) then
  redis.call('HSET', KEYS[1], 'ws', ARGV[1], 'n', 0)
end
local n = tonumber(redis.call('HGET', KEYS[1], 'n')) or 0
local limit = tonumber(ARGV[2])
if limit >= 0 and n + 1 > limit then
  return {0, n}
end
n = redis.call('HINCRBY', KEYS[1], 'n', 1)
if tonumber(ARGV[3]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[3])
end
return {1, n}
`)

// expiryGrace keeps expired calendar windows readable a little past their
// reset so Peek-based displays do not race the TTL.
const expiryGrace = time.Hour

// RedisStore implements Store on Redis. Atomicity per key comes from Redis
// executing the Lua script serially; counters for elapsed calendar windows
// are additionally reclaimed via TTL.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	opTimeout time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "entitlement:usage:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// WithOpTimeout bounds every Redis round trip. A timeout is reported as a
// store failure, which callers treat as a denial.
func WithOpTimeout(d time.Duration) RedisStoreOption {
	return func(rs *RedisStore) {
		if d > 0 {
			rs.opTimeout = d
		}
	}
}

// NewRedisStore creates a Redis-backed usage store.
// Panics if client is nil to fail fast during initialization.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("usage: redis client is required")
	}

	rs := &RedisStore{
		client:    client,
		keyPrefix: "entitlement:usage:",
		opTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func (rs *RedisStore) redisKey(key Key) string {
	return rs.keyPrefix + key.String()
}

// Peek returns the stored counter state without mutating it.
func (rs *RedisStore) Peek(ctx context.Context, key Key) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	vals, err := rs.client.HMGet(ctx, rs.redisKey(key), "n", "ws").Result()
	if err != nil {
		return Snapshot{}, errors.Join(ErrStoreUnavailable, err)
	}

	var snap Snapshot
	if s, ok := vals[0].(string); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Snapshot{}, errors.Join(ErrStoreUnavailable,
				fmt.Errorf("malformed count %q for key %s", s, key))
		}
		snap.Count = n
	}
	if s, ok := vals[1].(string); ok {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Snapshot{}, errors.Join(ErrStoreUnavailable,
				fmt.Errorf("malformed window start %q for key %s", s, key))
		}
		if sec > 0 {
			snap.WindowStart = time.Unix(sec, 0).UTC()
		}
	}
	return snap, nil
}

// TryIncrement atomically consumes one unit of quota for the key.
func (rs *RedisStore) TryIncrement(ctx context.Context, key Key, limit int64, window catalog.Window, now time.Time) (bool, int64, error) {
	if limit < catalog.Unlimited {
		return false, 0, ErrInvalidLimit
	}
	if !window.Valid() {
		return false, 0, ErrInvalidWindow
	}

	var startSec, ttlSec int64
	if window != catalog.WindowLifetime {
		startSec = WindowStart(now, window).Unix()
		if resetAt, ok := NextReset(now, window); ok {
			ttlSec = int64(resetAt.Sub(now.UTC())/time.Second) + int64(expiryGrace/time.Second)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	res, err := tryIncrementScript.Run(ctx, rs.client,
		[]string{rs.redisKey(key)}, startSec, limit, ttlSec).Result()
	if err != nil {
		return false, 0, errors.Join(ErrStoreUnavailable, err)
	}

	reply, ok := res.([]any)
	if !ok || len(reply) != 2 {
		return false, 0, errors.Join(ErrStoreUnavailable,
			fmt.Errorf("unexpected script reply %v for key %s", res, key))
	}
	flag, ok1 := reply[0].(int64)
	count, ok2 := reply[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, errors.Join(ErrStoreUnavailable,
			fmt.Errorf("unexpected script reply %v for key %s", res, key))
	}

	return flag == 1, count, nil
}

// Purge deletes all counters of the user for the given features.
func (rs *RedisStore) Purge(ctx context.Context, userID uuid.UUID, features []catalog.Feature) error {
	if len(features) == 0 {
		return nil
	}

	keys := make([]string, 0, len(features))
	for _, f := range features {
		keys = append(keys, rs.redisKey(Key{UserID: userID, Feature: f}))
	}

	ctx, cancel := context.WithTimeout(ctx, rs.opTimeout)
	defer cancel()

	if err := rs.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
