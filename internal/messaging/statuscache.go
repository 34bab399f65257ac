package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rbertolino-dev/flow-sub011/internal/connstate"
)

const defaultStatusTTL = 30 * time.Second

// StatusCache memoizes the WhatsApp instance connectivity state in Redis so
// status polling does not hammer the provider.
type StatusCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStatusCache creates a cache. Returns nil when the client is nil so
// callers can treat caching as optional.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &StatusCache{redis: client, ttl: ttl}
}

// Get returns the cached state for an instance. The second return is false
// on a cache miss.
func (c *StatusCache) Get(ctx context.Context, instance string) (connstate.State, bool, error) {
	value, err := c.redis.Get(ctx, statusKey(instance)).Result()
	if err != nil {
		if err == redis.Nil {
			return connstate.Unknown, false, nil
		}
		return connstate.Unknown, false, fmt.Errorf("messaging: load cached status: %w", err)
	}
	switch value {
	case connstate.Connected.String():
		return connstate.Connected, true, nil
	case connstate.Disconnected.String():
		return connstate.Disconnected, true, nil
	default:
		return connstate.Unknown, true, nil
	}
}

// Set stores the state for an instance with the configured TTL.
func (c *StatusCache) Set(ctx context.Context, instance string, state connstate.State) error {
	if err := c.redis.Set(ctx, statusKey(instance), state.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("messaging: cache status: %w", err)
	}
	return nil
}

func statusKey(instance string) string {
	return fmt.Sprintf("instance_status:%s", instance)
}
