// Package cache stores raw API responses and rendered layouts.
//
// All backends implement [Cache]. The CLI defaults to [FileCache] under the
// XDG cache directory; the layout service is usually pointed at Redis or
// MongoDB so several instances share pages. [NullCache] disables caching.
//
// Keys are produced by a [Keyer] so every backend sees the same key space:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.PageKey("communities/42/gallery", cursor, 20)
//	data, ok, err := c.Get(ctx, key)
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/mosaic/pkg/config"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value. A miss is (nil, false, nil); expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases connections held by the backend.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Open builds the backend selected by cfg.Backend and wraps it so cache
// hits, misses and writes reach the registered observability hooks.
func Open(ctx context.Context, cfg config.Cache) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		c, err = NewFileCache(cfg.Dir)
	case BackendRedis:
		c, err = NewRedisCache(ctx, RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	case BackendMongo:
		c, err = NewMongoCache(ctx, MongoOptions{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	name := cfg.Backend
	if name == "" {
		name = BackendFile
	}
	return Instrument(c, name), nil
}
