// Package trackcache keeps resolved titles in Redis so repeated quotes
// across requests skip the catalog.
package trackcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/heartmarshall/quotespell/internal/domain"
)

const keyPrefix = "quotespell:title:"

// Cache stores title -> track matches with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient parses a redis:// or rediss:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// New creates a Cache on top of an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached track for title, or nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, title string) (*domain.Track, error) {
	data, err := c.client.Get(ctx, keyPrefix+title).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("trackcache: get %q: %w", title, err)
	}

	var track domain.Track
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("trackcache: decode %q: %w", title, err)
	}
	return &track, nil
}

// Set stores track under title. An existing entry is left alone so the
// first match recorded wins.
func (c *Cache) Set(ctx context.Context, title string, track domain.Track) error {
	data, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("trackcache: encode %q: %w", title, err)
	}

	if err := c.client.SetNX(ctx, keyPrefix+title, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("trackcache: set %q: %w", title, err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
