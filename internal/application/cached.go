package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// fetchCached returns the value cached under key, or calls produce and caches
// its result as JSON. Cache failures are logged and bypassed. Producer errors
// are returned unchanged and never cached.
func fetchCached[T any](
	ctx context.Context,
	cache driven.Cache,
	key string,
	ttl time.Duration,
	produce func(context.Context) (T, error),
) (T, error) {
	if cache != nil {
		data, ok, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("cache read failed", "key", key, "error", err)
		case ok:
			var v T
			jsonErr := json.Unmarshal(data, &v)
			if jsonErr == nil {
				return v, nil
			}
			slog.Warn("discarding undecodable cache entry", "key", key, "error", jsonErr)
		}
	}

	v, err := produce(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if cache != nil {
		data, err := json.Marshal(v)
		if err != nil {
			slog.Warn("cache encode failed", "key", key, "error", err)
			return v, nil
		}
		if err := cache.Set(ctx, key, data, ttl); err != nil {
			slog.Warn("cache write failed", "key", key, "error", err)
		}
	}

	return v, nil
}
