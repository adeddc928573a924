package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/uni-adm-api/internal/models"
)

const currentPeriodCacheKey = "period:current"

// CacheRepository is the read-through cache for the current active period
// pointer. The period service invalidates it on every Regular-track
// activation; readers fall back to the database on a miss.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheRepository instantiates a cache repository.
func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheRepository{client: client, ttl: ttl}
}

// GetCurrentPeriod returns the cached pointer, or (nil, nil) on a miss.
func (r *CacheRepository) GetCurrentPeriod(ctx context.Context) (*models.CurrentPeriod, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, currentPeriodCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached current period: %w", err)
	}
	var period models.CurrentPeriod
	if err := json.Unmarshal(raw, &period); err != nil {
		return nil, nil
	}
	return &period, nil
}

// SetCurrentPeriod stores the pointer with the configured TTL.
func (r *CacheRepository) SetCurrentPeriod(ctx context.Context, period *models.CurrentPeriod) error {
	if r.client == nil || period == nil {
		return nil
	}
	raw, err := json.Marshal(period)
	if err != nil {
		return fmt.Errorf("marshal current period: %w", err)
	}
	if err := r.client.Set(ctx, currentPeriodCacheKey, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached current period: %w", err)
	}
	return nil
}

// InvalidateCurrentPeriod drops the cached pointer.
func (r *CacheRepository) InvalidateCurrentPeriod(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, currentPeriodCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate cached current period: %w", err)
	}
	return nil
}
