package scraper

import (
	"context"
	"fmt"
	"sync/atomic"
)

// URLCache caches the working mirror URL with lock-free reads. A cache
// miss triggers failover detection across the configured mirrors.
type URLCache struct {
	client *Client
	cache  atomic.Value // stores string
}

// NewURLCache creates a URL cache over the client's mirror list.
func NewURLCache(client *Client) *URLCache {
	return &URLCache{client: client}
}

// Get returns the cached working URL, detecting one if the cache is
// empty.
func (c *URLCache) Get(ctx context.Context) (string, error) {
	if cached := c.cache.Load(); cached != nil {
		if url, ok := cached.(string); ok && url != "" {
			return url, nil
		}
	}

	baseURL, err := c.client.TryFailoverURLs(ctx)
	if err != nil {
		// Fall back to the first configured mirror; the next scrape
		// error will clear the cache and re-detect.
		urls := c.client.BaseURLs()
		if len(urls) == 0 {
			return "", fmt.Errorf("no mirrors available: %w", err)
		}
		baseURL = urls[0]
	}

	c.cache.Store(baseURL)
	return baseURL, nil
}

// Clear invalidates the cached URL, forcing re-detection on next Get.
// Call after a scrape failure.
func (c *URLCache) Clear() {
	c.cache.Store("")
}
