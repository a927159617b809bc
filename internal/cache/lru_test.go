package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
)

func TestLRUCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute)

	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)

	post := &posts.Post{ID: "p1", Text: "hi", Likes: []posts.Like{{User: "u1"}}, Comments: []posts.Comment{}}
	c.Set(ctx, post)

	got, ok := c.Get(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, post, got)

	// the cache keeps its own copy
	got.Likes[0].User = "changed"
	post.Text = "changed"
	again, _ := c.Get(ctx, "p1")
	assert.Equal(t, "u1", again.Likes[0].User)
	assert.Equal(t, "hi", again.Text)

	c.Delete(ctx, "p1")
	_, ok = c.Get(ctx, "p1")
	assert.False(t, ok)
}

func TestLRUCache_KeepsNewestVersion(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute)

	c.Set(ctx, &posts.Post{ID: "p1", Version: 2, Likes: []posts.Like{{User: "u1"}, {User: "u2"}}})
	c.Set(ctx, &posts.Post{ID: "p1", Version: 1, Likes: []posts.Like{{User: "u1"}}})

	got, ok := c.Get(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Version)
	assert.Len(t, got.Likes, 2)

	c.Set(ctx, &posts.Post{ID: "p1", Version: 3})
	got, _ = c.Get(ctx, "p1")
	assert.Equal(t, int64(3), got.Version)
}

func TestLRUCache_DeletedPostStaysDeleted(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute)

	c.Set(ctx, &posts.Post{ID: "p1", Version: 1})
	c.Delete(ctx, "p1")

	// a request that loaded the post before the delete finishes afterwards
	c.Set(ctx, &posts.Post{ID: "p1", Version: 2})
	_, ok := c.Get(ctx, "p1")
	assert.False(t, ok)
}

func TestLRUCache_TombstoneExpires(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, 20*time.Millisecond)

	c.Delete(ctx, "p1")
	time.Sleep(60 * time.Millisecond)

	c.Set(ctx, &posts.Post{ID: "p1"})
	_, ok := c.Get(ctx, "p1")
	assert.True(t, ok)
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2, time.Minute)

	c.Set(ctx, &posts.Post{ID: "a"})
	c.Set(ctx, &posts.Post{ID: "b"})
	c.Set(ctx, &posts.Post{ID: "c"})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestLRUCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, 20*time.Millisecond)

	c.Set(ctx, &posts.Post{ID: "a"})
	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestLRUCache_IgnoresUnsavedPosts(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set(context.Background(), nil)
	c.Set(context.Background(), &posts.Post{})
	assert.Equal(t, 0, c.Len())
}
