package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"Postboard/internal/core/posts"
)

type memoryPostRepo struct {
	posts map[string]*posts.Post
	now   func() time.Time
	mu    sync.RWMutex
}

// NewPostRepository creates a process-local post repository
// Posts are deep-copied on the way in and out, so callers never share state with the store
func NewPostRepository() posts.Repository {
	return &memoryPostRepo{
		posts: make(map[string]*posts.Post),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns a UUID, the creation date and version 0
func (r *memoryPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	stored := post.Clone()
	stored.ID = uuid.NewString()
	stored.Date = r.now()
	stored.Version = 0
	normalize(stored)

	r.mu.Lock()
	r.posts[stored.ID] = stored
	r.mu.Unlock()

	return stored.Clone(), nil
}

// GetByID returns a copy of the stored post
func (r *memoryPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, posts.ErrNotFound
	}
	return post.Clone(), nil
}

// List returns every post, newest first
func (r *memoryPostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	r.mu.RLock()
	result := make([]*posts.Post, 0, len(r.posts))
	for _, post := range r.posts {
		result = append(result, post.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID > result[j].ID
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

// Save replaces the stored aggregate when the versions match
func (r *memoryPostRepo) Save(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.posts[post.ID]
	if !ok {
		return nil, posts.ErrNotFound
	}
	if current.Version != post.Version {
		return nil, posts.ErrConflict
	}

	stored := post.Clone()
	stored.User = current.User // owner is immutable
	stored.Date = current.Date
	stored.Version = current.Version + 1
	normalize(stored)
	r.posts[stored.ID] = stored

	return stored.Clone(), nil
}

// Delete removes the post
func (r *memoryPostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return posts.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func normalize(post *posts.Post) {
	if post.Likes == nil {
		post.Likes = []posts.Like{}
	}
	if post.Comments == nil {
		post.Comments = []posts.Comment{}
	}
}
