// Package cache keeps routing-provider distance matrices in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rodaje/rodaje/internal/metrics"
	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
)

const (
	keyPrefix  = "rodaje:matrix:"
	DefaultTTL = 7 * 24 * time.Hour
)

// DistanceCache decorates a distance.Provider with a Redis read-through cache.
// Redis failures are logged and the call goes to the provider.
type DistanceCache struct {
	client redis.Cmdable
	next   distance.Provider
	ttl    time.Duration
}

var _ distance.Provider = (*DistanceCache)(nil)

// NewDistanceCache wraps next. A zero ttl uses DefaultTTL.
func NewDistanceCache(client redis.Cmdable, next distance.Provider, ttl time.Duration) *DistanceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DistanceCache{client: client, next: next, ttl: ttl}
}

// Name returns the wrapped provider's name.
func (c *DistanceCache) Name() string {
	return c.next.Name()
}

// Matrix returns the cached matrix for locations or asks the provider and stores its answer.
func (c *DistanceCache) Matrix(ctx context.Context, locations []model.Location) (*distance.Matrix, error) {
	key := MatrixKey(c.next.Name(), locations)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m distance.Matrix
		if jsonErr := json.Unmarshal(raw, &m); jsonErr == nil && len(m.Cells) == len(locations) {
			metrics.RecordDistanceLookup(metrics.LookupCacheHit)
			return &m, nil
		}
		logger.Warn().Str("key", key).Msg("discarding malformed cached matrix")
	case !errors.Is(err, redis.Nil):
		metrics.RecordDistanceLookup(metrics.LookupCacheFail)
		logger.WithError(err).Str("key", key).Msg("distance cache read failed")
	}

	m, err := c.next.Matrix(ctx, locations)
	if err != nil {
		return nil, err
	}
	metrics.RecordDistanceLookup(metrics.LookupProvider)

	if payload, err := json.Marshal(m); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.WithError(err).Str("key", key).Msg("distance cache write failed")
		}
	}
	return m, nil
}

// MatrixKey identifies a matrix by provider and the ordered locations with their coordinates.
func MatrixKey(provider string, locations []model.Location) string {
	var b strings.Builder
	for _, l := range locations {
		b.WriteString(l.Key())
		b.WriteByte('|')
		if l.HasCoordinates() {
			b.WriteString(strconv.FormatFloat(*l.Latitude, 'f', 6, 64))
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(*l.Longitude, 'f', 6, 64))
		}
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + provider + ":" + hex.EncodeToString(sum[:])
}

// Ping reports whether Redis is reachable.
func Ping(ctx context.Context, client redis.Cmdable) error {
	return client.Ping(ctx).Err()
}
