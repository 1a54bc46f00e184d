package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/chessrecs/internal/config"
	"github.com/temcen/chessrecs/internal/ml"
)

// PredictionCache stores the raw collaborative distribution per rating
// bucket. Entries are never evicted; a bucket's distribution only changes
// when new artifacts are installed along with a fresh cache.
type PredictionCache interface {
	Get(ctx context.Context, bucket int) (*ScoreTable, bool)
	Put(ctx context.Context, bucket int, dist *ScoreTable)
}

// MemoryPredictionCache is the process-local tier.
type MemoryPredictionCache struct {
	entries sync.Map // int -> *ScoreTable
}

func NewMemoryPredictionCache() *MemoryPredictionCache {
	return &MemoryPredictionCache{}
}

func (c *MemoryPredictionCache) Get(_ context.Context, bucket int) (*ScoreTable, bool) {
	v, ok := c.entries.Load(bucket)
	if !ok {
		return nil, false
	}
	return v.(*ScoreTable), true
}

func (c *MemoryPredictionCache) Put(_ context.Context, bucket int, dist *ScoreTable) {
	c.entries.Store(bucket, dist)
}

func (c *MemoryPredictionCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// CacheVersion combines the artifact fingerprint with the settings that shape
// a cached distribution. Settings applied after the cache (top_n, complexity)
// and batch size are left out.
func CacheVersion(fingerprint string, cfg config.CollaborativeConfig) string {
	settings, err := json.Marshal(struct {
		MinNeighbors        int     `json:"min_neighbors"`
		RatingRadii         []int   `json:"rating_radii"`
		NeighborWeightShift float64 `json:"neighbor_weight_shift"`
		BucketSize          int     `json:"bucket_size"`
		MinRating           int     `json:"min_rating"`
		MaxRating           int     `json:"max_rating"`
		Temperature         float64 `json:"temperature"`
	}{
		MinNeighbors:        cfg.MinNeighbors,
		RatingRadii:         cfg.RatingRadii,
		NeighborWeightShift: cfg.NeighborWeightShift,
		BucketSize:          cfg.BucketSize,
		MinRating:           cfg.MinRating,
		MaxRating:           cfg.MaxRating,
		Temperature:         cfg.Temperature,
	})
	if err != nil {
		settings = []byte(fmt.Sprintf("%+v", cfg))
	}
	return ml.Fingerprint([]byte(fingerprint), settings)
}

// RedisPredictionCache shares distributions between replicas. Keys carry the
// cache version so replicas running different models or settings never collide.
// Redis failures degrade to cache misses.
type RedisPredictionCache struct {
	client      *redis.Client
	prefix      string
	version     string
	logger      *logrus.Logger
}

func NewRedisPredictionCache(client *redis.Client, prefix, version string, logger *logrus.Logger) *RedisPredictionCache {
	return &RedisPredictionCache{
		client:      client,
		prefix:      prefix,
		version:     version,
		logger:      logger,
	}
}

func (c *RedisPredictionCache) key(bucket int) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, c.version, bucket)
}

func (c *RedisPredictionCache) Get(ctx context.Context, bucket int) (*ScoreTable, bool) {
	data, err := c.client.Get(ctx, c.key(bucket)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("bucket", bucket).Warn("Failed to read cached distribution")
		}
		return nil, false
	}

	dist := NewScoreTable(0)
	if err := json.Unmarshal(data, dist); err != nil {
		c.logger.WithError(err).WithField("bucket", bucket).Warn("Discarding malformed cached distribution")
		return nil, false
	}
	return dist, true
}

func (c *RedisPredictionCache) Put(ctx context.Context, bucket int, dist *ScoreTable) {
	data, err := json.Marshal(dist)
	if err != nil {
		c.logger.WithError(err).Error("Failed to encode distribution")
		return
	}

	if err := c.client.Set(ctx, c.key(bucket), data, 0).Err(); err != nil {
		c.logger.WithError(err).WithField("bucket", bucket).Warn("Failed to cache distribution")
	}
}

// TieredPredictionCache reads through the local tier to the shared one and
// writes to both.
type TieredPredictionCache struct {
	local  PredictionCache
	shared PredictionCache
}

func NewTieredPredictionCache(local, shared PredictionCache) *TieredPredictionCache {
	return &TieredPredictionCache{local: local, shared: shared}
}

func (c *TieredPredictionCache) Get(ctx context.Context, bucket int) (*ScoreTable, bool) {
	if dist, ok := c.local.Get(ctx, bucket); ok {
		return dist, true
	}
	dist, ok := c.shared.Get(ctx, bucket)
	if ok {
		c.local.Put(ctx, bucket, dist)
	}
	return dist, ok
}

func (c *TieredPredictionCache) Put(ctx context.Context, bucket int, dist *ScoreTable) {
	c.local.Put(ctx, bucket, dist)
	c.shared.Put(ctx, bucket, dist)
}
