package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/vardhan998997/visual-product-matcer/models"
)

const (
	AnalysisCachePrefix = "analysis:"
	DefaultAnalysisTTL  = 24 * time.Hour
)

// AnalysisCache remembers extracted attributes per model and image reference. A nil
// cache misses on every lookup and drops every write.
type AnalysisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalysisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	return &AnalysisCache{redis: client, ttl: ttl, logger: logger}
}

func analysisCacheKey(model, ref string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + ref))
	return AnalysisCachePrefix + hex.EncodeToString(sum[:])
}

func (c *AnalysisCache) Get(ctx context.Context, model, ref string) (*models.Attributes, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	cached, err := c.redis.Get(ctx, analysisCacheKey(model, ref)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Analysis cache unavailable", zap.Error(err))
		}
		return nil, false
	}

	var attrs models.Attributes
	if err := json.Unmarshal([]byte(cached), &attrs); err != nil {
		c.logger.Warn("Failed to unmarshal cached analysis", zap.Error(err))
		return nil, false
	}
	return &attrs, true
}

// SetAsync stores attrs in the background.
func (c *AnalysisCache) SetAsync(model, ref string, attrs models.Attributes) {
	if c == nil || c.redis == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		payload, err := json.Marshal(attrs)
		if err != nil {
			c.logger.Warn("Failed to marshal analysis for cache", zap.Error(err))
			return
		}
		if err := c.redis.Set(bgCtx, analysisCacheKey(model, ref), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache analysis", zap.Error(err))
		}
	}()
}
