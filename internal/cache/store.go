package cache

import (
	"context"
	"time"

	"MacroLens/internal/model"
)

// Store holds fetched series keyed by request. Implementations expire
// entries after their TTL.
type Store interface {
	Get(ctx context.Context, key string) (model.TimeSeries, bool, error)
	Set(ctx context.Context, key string, ts model.TimeSeries, ttl time.Duration) error
	// Purge drops every entry whose key starts with prefix; "" drops all.
	Purge(ctx context.Context, prefix string) error
	Close() error
}
