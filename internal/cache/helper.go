package cache

import (
	"context"
	"errors"
	"time"

	"bizzy/internal/observability"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found
// or when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	b, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Cache failures never fail the call.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	fam := family(key)
	found, err := GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(fam, "error").Inc()
	case found:
		observability.CacheLookups.WithLabelValues(fam, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(fam, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// SetString stores a plain string value with TTL.
func SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if client == nil {
		return errors.New("cache unavailable")
	}
	return client.Set(ctx, key, value, ttl).Err()
}

// TakeString reads and deletes key in one step. Returns "" with no error
// when the key does not exist.
func TakeString(ctx context.Context, key string) (string, error) {
	if client == nil {
		return "", errors.New("cache unavailable")
	}
	v, err := client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}
