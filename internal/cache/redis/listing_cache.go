package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// ListingCache implements domain.ListingCache by storing each search result
// as a JSON array under arbscout:listings:{platform}:{keyword} with a TTL.
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache creates a ListingCache whose entries live for ttl.
func NewListingCache(c *Client, ttl time.Duration) *ListingCache {
	return &ListingCache{rdb: c.Underlying(), ttl: ttl}
}

func listingKey(platform domain.Platform, keyword string) string {
	return key("listings", string(platform), strings.ToLower(strings.TrimSpace(keyword)))
}

// Put replaces the cached listings for a platform and keyword.
func (lc *ListingCache) Put(ctx context.Context, platform domain.Platform, keyword string, listings []domain.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("redis: marshal listings %s/%s: %w", platform, keyword, err)
	}
	if err := lc.rdb.Set(ctx, listingKey(platform, keyword), data, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put listings %s/%s: %w", platform, keyword, err)
	}
	return nil
}

// Get returns the cached listings or domain.ErrNotFound on a miss.
func (lc *ListingCache) Get(ctx context.Context, platform domain.Platform, keyword string) ([]domain.Listing, error) {
	data, err := lc.rdb.Get(ctx, listingKey(platform, keyword)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get listings %s/%s: %w", platform, keyword, err)
	}

	var listings []domain.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("redis: unmarshal listings %s/%s: %w", platform, keyword, err)
	}
	return listings, nil
}

var _ domain.ListingCache = (*ListingCache)(nil)
