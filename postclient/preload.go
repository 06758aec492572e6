package postclient

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// preloadConcurrency bounds the fetches PreloadAll runs at once.
const preloadConcurrency = 4

// Preload warms the cache for slug. It does nothing when the cached post
// is fresh. Failures are logged at debug level and never returned; the
// cache is only written on success.
func (c *Client) Preload(ctx context.Context, slug string) {
	if e, ok := c.posts.Get(slug); ok && c.posts.IsFresh(e) {
		return
	}
	if _, err := c.fetchPost(ctx, slug); err != nil {
		c.logger.Debugf("preload %s: %v", slug, err)
	}
}

// PreloadAll warms the cache for every slug and returns once all preloads
// have finished. Like Preload it never reports failures.
func (c *Client) PreloadAll(ctx context.Context, slugs []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)
	for _, slug := range slugs {
		g.Go(func() error {
			c.Preload(ctx, slug)
			return nil
		})
	}
	_ = g.Wait()
}
