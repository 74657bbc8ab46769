package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

// Store is a byte-valued cache. A miss is (nil, false, nil). Callers treat
// errors as misses and fall through to the source of truth.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cleaner is implemented by stores that hold expiring entries the janitor
// can sweep.
type Cleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                  { return nil }

// Fetch returns the JSON value memoized under key, or computes it with load
// and stores it for ttl. Cache failures are logged and never returned.
func Fetch[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	log := logging.FromContext(ctx)

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Warn("cache get failed", "key", key, "error", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Warn("cache entry undecodable, reloading", "key", key)
	}

	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		log.Warn("cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := store.Set(ctx, key, raw, ttl); err != nil {
		log.Warn("cache set failed", "key", key, "error", err)
	}
	return v, nil
}
