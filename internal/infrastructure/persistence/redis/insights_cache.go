package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
)

// InsightsCache caches the community insights feed and per-theme counters.
// The feed is rebuilt every scrape cycle, so a short TTL is enough.
type InsightsCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewInsightsCache creates a new InsightsCache.
func NewInsightsCache(cache *Cache) *InsightsCache {
	return &InsightsCache{
		cache: cache,
		ttl:   TTLInsightsCache,
	}
}

// GetPosts returns the cached feed for a theme ("" means all themes),
// or ErrCacheMiss.
func (c *InsightsCache) GetPosts(ctx context.Context, theme insights.Theme) ([]insights.Post, error) {
	var posts []insights.Post
	if err := c.cache.Get(ctx, InsightsKey(theme.String()), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SetPosts caches the feed for a theme.
func (c *InsightsCache) SetPosts(ctx context.Context, theme insights.Theme, posts []insights.Post) error {
	return c.cache.Set(ctx, InsightsKey(theme.String()), posts, c.ttl)
}

// IncrementThemeCount bumps the running counter for a theme. Counters are
// monotonic per scrape epoch; the sync job resets them via InvalidateAll.
func (c *InsightsCache) IncrementThemeCount(ctx context.Context, theme insights.Theme) (int64, error) {
	return c.cache.Incr(ctx, PrefixInsights+"count:"+theme.String())
}

// GetThemeCounts returns the cached per-theme counters.
func (c *InsightsCache) GetThemeCounts(ctx context.Context) (map[insights.Theme]int64, error) {
	counts := make(map[insights.Theme]int64)
	for _, theme := range insights.Themes() {
		val, err := c.cache.GetString(ctx, PrefixInsights+"count:"+theme.String())
		if err == ErrCacheMiss {
			continue
		}
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		counts[theme] = n
	}
	return counts, nil
}

// InvalidateAll clears cached feeds and counters before a fresh scrape.
func (c *InsightsCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixInsights+"*")
}
