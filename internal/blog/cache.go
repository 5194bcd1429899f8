package blog

import (
	"strings"
	"sync"
	"time"
)

// Cache keeps the published-post listing in memory with a TTL so the
// public endpoints don't reread the index on every request. Writes
// invalidate it through the revalidation hub; the TTL covers anything
// the hub misses.
type Cache struct {
	mu      sync.RWMutex
	repo    *Repository
	ttl     time.Duration
	posts   []Post
	fetched time.Time
}

// NewCache creates a Cache over repo. ttl <= 0 defaults to 5 minutes.
func NewCache(repo *Repository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{repo: repo, ttl: ttl}
}

func (c *Cache) validLocked() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read reloads from disk.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// HandleInvalidation satisfies the revalidation hub's subscriber
// signature; any write to blog data empties the cache.
func (c *Cache) HandleInvalidation(paths []string) {
	for _, p := range paths {
		if p == "/blog" || strings.HasPrefix(p, "/blog/") {
			c.Invalidate()
			return
		}
	}
}

func (c *Cache) ensureLoaded() ([]Post, error) {
	c.mu.RLock()
	if c.validLocked() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.validLocked() {
		return c.posts, nil
	}
	posts, err := c.repo.ListPublished("")
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []Post{}
	}
	c.posts = posts
	c.fetched = time.Now()
	return posts, nil
}

// ListPublished returns published posts, optionally filtered by tag.
func (c *Cache) ListPublished(tag string) ([]Post, error) {
	posts, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return posts, nil
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []Post
	for _, p := range posts {
		if hasTag(p, tag) {
			out = append(out, p)
		}
	}
	return out, nil
}
