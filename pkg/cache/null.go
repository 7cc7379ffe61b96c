package cache

import (
	"context"
	"time"
)

// NullCache never stores anything. Selected with backend "none" and used by
// tests that must always hit the API.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error)            { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                         { return nil }
func (NullCache) Close() error                                                 { return nil }

var _ Cache = NullCache{}
