package website

import (
	"database/sql"
	"sync"
	"time"

	"github.com/nathan-a-king/website-sub000/post"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// PostCache is an in-memory cache of published posts and categories with
// a TTL. It backs the posts API, so a post saved by the admin API is
// visible to the page loaders after Invalidate.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	categories []string
	fetched    time.Time
	ttl        time.Duration
	store      *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.categories = nil
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts("")
	if err != nil {
		return err
	}
	categories, err := c.store.ListCategories()
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []Post{}
	}
	c.posts = posts
	c.categories = categories
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and categories after ensuring the
// cache is fresh. It tries a read lock first and only takes the write lock
// when a reload is needed.
func (c *PostCache) ensureLoaded() ([]Post, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, categories := c.posts, c.categories
		c.mu.RUnlock()
		return posts, categories, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.posts, c.categories, nil
}

// ListPosts returns published posts, optionally filtered by category.
func (c *PostCache) ListPosts(category string) ([]Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return posts, nil
	}
	var filtered []Post
	for _, p := range posts {
		if p.Summary().HasCategory(category) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Summaries returns the posts index: one summary per published post,
// newest first.
func (c *PostCache) Summaries() ([]post.Summary, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	out := make([]post.Summary, len(posts))
	for i, p := range posts {
		out[i] = p.Summary()
	}
	return out, nil
}

// Categories returns all unique categories of published posts.
func (c *PostCache) Categories() ([]string, error) {
	_, categories, err := c.ensureLoaded()
	return categories, err
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(slug string) (Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}
