package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/ivr-backend/internal/model"
)

// SettingsCache keeps the current gateway settings of each channel in Redis.
// A nil *SettingsCache is valid and caches nothing.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSettingsCache(client *redis.Client, ttl time.Duration) *SettingsCache {
	if client == nil {
		return nil
	}
	return &SettingsCache{client: client, ttl: ttl}
}

func key(channel model.Channel) string {
	return "settings:" + string(channel)
}

// versionKey is bumped by every invalidation so a reader holding an older
// version knows its database row may be stale.
func versionKey(channel model.Channel) string {
	return "settings:" + string(channel) + ":version"
}

// Get reports a cache miss with ok=false and a nil error.
func (c *SettingsCache) Get(ctx context.Context, channel model.Channel) (*model.GatewaySettings, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, key(channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s model.GatewaySettings
	if err := json.Unmarshal(raw, &s); err != nil {
		// stale shape; drop it
		_ = c.client.Del(ctx, key(channel)).Err()
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *SettingsCache) Set(ctx context.Context, s *model.GatewaySettings) error {
	if c == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(s.Channel), raw, c.ttl).Err()
}

// Version returns the invalidation counter of a channel. Read it before
// loading the row that will be handed to SetIfVersion.
func (c *SettingsCache) Version(ctx context.Context, channel model.Channel) (int64, error) {
	if c == nil {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(channel)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetIfVersion stores s only if no invalidation happened since version was
// read. A skipped write is not an error.
func (c *SettingsCache) SetIfVersion(ctx context.Context, s *model.GatewaySettings, version int64) error {
	if c == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	vkey := versionKey(s.Channel)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key(s.Channel), raw, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached row and bumps the channel version.
func (c *SettingsCache) Invalidate(ctx context.Context, channel model.Channel) error {
	if c == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey(channel))
		p.Del(ctx, key(channel))
		return nil
	})
	return err
}
