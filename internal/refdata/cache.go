package refdata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/request-workflow/internal/domain"
)

const (
	keyCategories = "refdata:categories"
	keyPeople     = "refdata:people"
	keyActions    = "refdata:actions"
)

// Cache holds categories, people and actions. Reads go Redis first, then
// upstream; a fetched list refreshes Redis with the configured TTL. The
// in-process snapshot is a last resort when both are unavailable. The cache
// is read-only shared state for the workflow: it resolves display names and
// never participates in validation.
type Cache struct {
	client *Client
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot map[string][]byte
}

// NewCache constructs the cache. The redis client may be nil.
func NewCache(client *Client, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		client:   client,
		redis:    redisClient,
		ttl:      ttl,
		logger:   logger,
		snapshot: make(map[string][]byte),
	}
}

// Categories returns the cached category list.
func (c *Cache) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.lookup(ctx, keyCategories, &out, func(ctx context.Context) (any, error) {
		return c.client.Categories(ctx)
	})
	return out, err
}

// People returns the cached people list.
func (c *Cache) People(ctx context.Context) ([]domain.Person, error) {
	var out []domain.Person
	err := c.lookup(ctx, keyPeople, &out, func(ctx context.Context) (any, error) {
		return c.client.People(ctx)
	})
	return out, err
}

// Actions returns the cached action taxonomy.
func (c *Cache) Actions(ctx context.Context) ([]domain.Action, error) {
	var out []domain.Action
	err := c.lookup(ctx, keyActions, &out, func(ctx context.Context) (any, error) {
		return c.client.Actions(ctx)
	})
	return out, err
}

// CategoryName resolves a category id to its display name; the id itself is
// returned when the category is unknown or the cache is unavailable.
func (c *Cache) CategoryName(ctx context.Context, categoryID string) string {
	categories, err := c.Categories(ctx)
	if err != nil {
		return categoryID
	}
	for _, category := range categories {
		if category.ID == categoryID {
			return category.DisplayName
		}
	}
	return categoryID
}

func (c *Cache) lookup(ctx context.Context, key string, out any, fetch func(context.Context) (any, error)) error {
	if c.redis != nil {
		cached, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			if err := json.Unmarshal(cached, out); err == nil {
				return nil
			}
		}
	}

	if !c.client.Enabled() {
		return c.fromSnapshot(key, out)
	}

	fetched, err := fetch(ctx)
	if err != nil {
		// Serve the last good copy when upstream is down.
		if snapErr := c.fromSnapshot(key, out); snapErr == nil {
			return nil
		}
		return err
	}

	encoded, err := json.Marshal(fetched)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snapshot[key] = encoded
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil && c.logger != nil {
			c.logger.Warn("refdata cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return json.Unmarshal(encoded, out)
}

func (c *Cache) fromSnapshot(key string, out any) error {
	c.mu.RLock()
	encoded, ok := c.snapshot[key]
	c.mu.RUnlock()
	if !ok {
		// Nothing cached yet; an empty list is the honest answer.
		return json.Unmarshal([]byte("[]"), out)
	}
	return json.Unmarshal(encoded, out)
}

// SeedActions primes the snapshot with the configured workflow action set so
// GET /actions works without an upstream.
func (c *Cache) SeedActions(actions []domain.Action) {
	encoded, err := json.Marshal(actions)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.snapshot[keyActions] = encoded
	c.mu.Unlock()
}
