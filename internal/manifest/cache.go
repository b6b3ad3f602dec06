package manifest

import (
	"context"
	"sync"
)

// Cache computes the manifest of one checkout at most once. The driver
// creates it and hands the pointer to every component that needs the
// manifest.
type Cache struct {
	root     string
	once     sync.Once
	manifest *Manifest
	err      error
}

// NewCache returns a cache for the checkout at root.
func NewCache(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the checkout root the cache discovers from.
func (c *Cache) Root() string {
	return c.root
}

// Get returns the manifest, discovering it on first use. A failed discovery
// is remembered and returned by every later call.
func (c *Cache) Get(ctx context.Context) (*Manifest, error) {
	c.once.Do(func() {
		c.manifest, c.err = Discover(ctx, c.root)
	})
	return c.manifest, c.err
}
