package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
)

// DefaultResultKey is where the latest analysis payload lives.
const DefaultResultKey = "neuroband:latest_result"

// ResultCache stores the latest analysis result as JSON in a BytesCache.
type ResultCache struct {
	bc  BytesCache
	key string
	ttl time.Duration
}

func NewResultCache(bc BytesCache, key string, ttl time.Duration) *ResultCache {
	if key == "" {
		key = DefaultResultKey
	}
	return &ResultCache{bc: bc, key: key, ttl: ttl}
}

func (c *ResultCache) GetResult(ctx context.Context) (*models.AnalysisResult, bool, error) {
	b, ok, err := c.bc.GetBytes(ctx, c.key)
	if err != nil || !ok {
		return nil, false, err
	}
	res := &models.AnalysisResult{BandPowers: models.NewBandPowers()}
	if err := json.Unmarshal(b, res); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

func (c *ResultCache) SetResult(ctx context.Context, r *models.AnalysisResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.bc.SetBytes(ctx, c.key, b, c.ttl)
}

var _ domrepo.ResultCache = (*ResultCache)(nil)
