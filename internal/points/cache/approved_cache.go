package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

const approvedKey = "points:approved"

// ApprovedCache keeps the approved-points listing in Redis. It is a pure
// read-through cache: every failure degrades to a miss and the store stays
// authoritative.
type ApprovedCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func New(client *redis.Client, ttl time.Duration, log zerolog.Logger) *ApprovedCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ApprovedCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "approved-cache").Logger(),
	}
}

// Get returns the cached listing and whether it was a hit.
func (c *ApprovedCache) Get(ctx context.Context) ([]domain.Point, bool) {
	data, err := c.client.Get(ctx, approvedKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("cache read failed, degrading to store")
		return nil, false
	}

	var points []domain.Point
	if err := json.Unmarshal([]byte(data), &points); err != nil {
		c.log.Warn().Err(err).Msg("cache payload corrupt, degrading to store")
		return nil, false
	}
	return points, true
}

// Set stores the listing with the configured TTL. Best effort.
func (c *ApprovedCache) Set(ctx context.Context, points []domain.Point) {
	data, err := json.Marshal(points)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to marshal approved points")
		return
	}
	if err := c.client.Set(ctx, approvedKey, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
}

// Invalidate drops the cached listing. Called after every moderation
// transition.
func (c *ApprovedCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, approvedKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
