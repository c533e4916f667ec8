package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/redis/go-redis/v9"
)

const searchKeyPrefix = "moodmix:search"

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// CachedCatalog decorates a [Catalog] with a Redis read-through cache of search results.
//
// Only successful searches are cached. Cache failures fall through to the wrapped catalog.
type CachedCatalog struct {
	next   Catalog
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedCatalog wraps next with a cache whose entries expire after ttl.
func NewCachedCatalog(next Catalog, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// SearchKey returns the cache key for a term and limit. Terms are case- and space-insensitive.
func SearchKey(term string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(term)), " ")
	return fmt.Sprintf("%s:%d:%s", searchKeyPrefix, limit, normalized)
}

// SearchTracks returns cached results for term when present, otherwise searches and stores them.
func (c *CachedCatalog) SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error) {
	key := SearchKey(term, limit)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tracks []models.Track
		if jsonErr := json.Unmarshal(data, &tracks); jsonErr == nil {
			c.logger.Debug("search cache hit", "term", term)
			return tracks, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("search cache unavailable", "error", err)
	}

	tracks, err := c.next.SearchTracks(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(tracks); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("failed to cache search results", "term", term, "error", err)
		}
	}
	return tracks, nil
}
