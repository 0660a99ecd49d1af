// Package cache keeps the zone list in Redis so zone resolution does not hit
// the database on every request.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

const (
	zonesKey   = "zones:all"
	defaultTTL = 5 * time.Minute
)

// ZoneCache degrades to a no-op when the client is nil, so a missing Redis
// only costs latency.
type ZoneCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewZoneCache(rdb *redis.Client, prefix string, ttl time.Duration) *ZoneCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ZoneCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *ZoneCache) key() string {
	if c.prefix == "" {
		return zonesKey
	}
	return c.prefix + ":" + zonesKey
}

func (c *ZoneCache) GetZones(ctx context.Context) ([]models.Zone, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key()).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.FromContext(ctx).Warn("zone_cache_get_error", "error", err)
		}
		return nil, false
	}
	var zones []models.Zone
	if err := json.Unmarshal(raw, &zones); err != nil {
		logging.FromContext(ctx).Warn("zone_cache_decode_error", "error", err)
		return nil, false
	}
	return zones, true
}

func (c *ZoneCache) SetZones(ctx context.Context, zones []models.Zone) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(zones)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(), raw, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("zone_cache_set_error", "error", err)
	}
}

func (c *ZoneCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key()).Err(); err != nil {
		logging.FromContext(ctx).Warn("zone_cache_invalidate_error", "error", err)
	}
}

// NewRedisClient connects to addr and returns nil when the server does not
// answer a ping, letting callers run without a cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
