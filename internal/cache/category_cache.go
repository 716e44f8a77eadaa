// Package cache holds the Redis read-through caches used by the services.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ispdesk/ops-console/internal/domain"
)

// CategoryListKey is the Redis key holding the serialized category list.
const CategoryListKey = "ticket_categories:all"

// KV is the subset of the go-redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CategoryCache caches the full category registry listing.
type CategoryCache struct {
	kv  KV
	ttl time.Duration
}

// NewCategoryCache builds a cache; ttl <= 0 means no expiry.
func NewCategoryCache(kv KV, ttl time.Duration) *CategoryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &CategoryCache{kv: kv, ttl: ttl}
}

type cachedCategory struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	SLAHours    int       `json:"sla_hours"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Get returns the cached list; ok is false on a miss.
func (c *CategoryCache) Get(ctx context.Context) ([]domain.TicketCategoryConfig, bool, error) {
	raw, err := c.kv.Get(ctx, CategoryListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []cachedCategory
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	out := make([]domain.TicketCategoryConfig, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.TicketCategoryConfig{
			ID:          e.ID,
			Code:        domain.CategoryCode(e.Code),
			Name:        e.Name,
			SLAHours:    e.SLAHours,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
		})
	}
	return out, true, nil
}

// Set stores the list.
func (c *CategoryCache) Set(ctx context.Context, categories []domain.TicketCategoryConfig) error {
	entries := make([]cachedCategory, 0, len(categories))
	for _, cat := range categories {
		entries = append(entries, cachedCategory{
			ID:          cat.ID,
			Code:        cat.Code.String(),
			Name:        cat.Name,
			SLAHours:    cat.SLAHours,
			Description: cat.Description,
			CreatedAt:   cat.CreatedAt,
			UpdatedAt:   cat.UpdatedAt,
		})
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, CategoryListKey, body, c.ttl).Err()
}

// Invalidate drops the cached list.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	return c.kv.Del(ctx, CategoryListKey).Err()
}
