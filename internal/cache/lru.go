package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"Postboard/internal/core/posts"
)

var _ posts.Cache = (*LRUCache)(nil)

// lruEntry is either a cached post or a tombstone for a deleted id
type lruEntry struct {
	post    *posts.Post
	deleted bool
}

// LRUCache is a bounded, expiring in-process post cache
type LRUCache struct {
	entries *expirable.LRU[string, lruEntry]
	mu      sync.Mutex // serializes the version check in Set with Add
}

// NewLRUCache creates a cache holding at most size posts for ttl each
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1
	}
	return &LRUCache{
		entries: expirable.NewLRU[string, lruEntry](size, nil, ttl),
	}
}

// Get returns a copy of the cached post
func (c *LRUCache) Get(_ context.Context, id string) (*posts.Post, bool) {
	entry, ok := c.entries.Get(id)
	if !ok || entry.deleted {
		return nil, false
	}
	return entry.post.Clone(), true
}

// Set stores a copy of post unless a newer version or a tombstone is cached
func (c *LRUCache) Set(_ context.Context, post *posts.Post) {
	if post == nil || post.ID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries.Peek(post.ID); ok {
		if current.deleted || current.post.Version >= post.Version {
			return
		}
	}
	c.entries.Add(post.ID, lruEntry{post: post.Clone()})
}

// Delete replaces the cached post with a tombstone that lives for the cache TTL
func (c *LRUCache) Delete(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(id, lruEntry{deleted: true})
}

// Len reports the number of cached entries, tombstones included
func (c *LRUCache) Len() int {
	return c.entries.Len()
}
