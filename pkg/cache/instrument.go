package cache

import (
	"context"
	"time"

	"github.com/matzehuels/mosaic/pkg/observability"
)

// instrumented reports cache traffic to the observability hooks.
type instrumented struct {
	Cache
	backend string
}

// Instrument wraps c so every Get and Set is reported to
// [observability.Cache] under the given backend name.
func Instrument(c Cache, backend string) Cache {
	return &instrumented{Cache: c, backend: backend}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, c.backend)
	} else {
		observability.Cache().OnCacheMiss(ctx, c.backend)
	}
	return data, ok, nil
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.backend, len(data))
	return nil
}
