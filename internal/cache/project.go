package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/model"
)

// Cache key prefixes and TTLs.
const (
	projectKeyPrefix  = "project:"
	negCacheKeySuffix = ":neg"

	// DefaultProjectTTL is the TTL for cached project data.
	DefaultProjectTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 30 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetProject retrieves a project from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetProject(ctx context.Context, id string) (*model.Project, error) {
	data, err := c.client.Get(ctx, projectKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		// Unreadable entries are evicted and treated as a miss.
		c.client.Del(ctx, projectKeyPrefix+id)
		return nil, ErrCacheMiss
	}
	if project.Technologies == nil {
		project.Technologies = []string{}
	}

	return &project, nil
}

// SetProject stores a project in cache and clears any negative entry.
func (c *Cache) SetProject(ctx context.Context, project *model.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	key := projectKeyPrefix + project.ID

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, c.projectTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache project: %w", err)
	}

	return nil
}

// DeleteProject removes a project and its negative entry from cache.
func (c *Cache) DeleteProject(ctx context.Context, id string) error {
	key := projectKeyPrefix + id

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete project from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a project ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := projectKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a project ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	key := projectKeyPrefix + id + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
