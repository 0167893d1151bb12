package ports

import (
	"context"
	"time"
)

// Cache is a small string KV store. The triage replay keeps its per-stream
// journal offsets here.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
