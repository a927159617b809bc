package posts

import "context"

// Service defines the business logic interface for posts
// Every mutation follows: load -> apply aggregate rule -> Repository.Save
type Service interface {
	// ListPosts returns all posts, newest first
	ListPosts(ctx context.Context) ([]*Post, error)

	// GetPost returns a single post by id
	GetPost(ctx context.Context, id string) (*Post, error)

	// CreatePost creates a post owned by userID
	CreatePost(ctx context.Context, userID string, input PostInput) (*Post, error)

	// DeletePost deletes a post; only the owner may do so
	DeletePost(ctx context.Context, id, userID string) error

	// LikePost adds userID to the post's likes
	LikePost(ctx context.Context, id, userID string) (*Post, error)

	// UnlikePost removes userID from the post's likes
	UnlikePost(ctx context.Context, id, userID string) (*Post, error)

	// AddComment prepends a comment authored by userID
	AddComment(ctx context.Context, id, userID string, input PostInput) (*Post, error)

	// RemoveComment removes a comment by id
	RemoveComment(ctx context.Context, id, commentID, userID string) (*Post, error)
}

// Repository defines durable keyed storage for Post aggregates
// All methods are durable upon return. Driver failures are returned as *StorageError.
type Repository interface {
	// Create assigns ID, Date and Version, persists the post and returns the stored form
	Create(ctx context.Context, post *Post) (*Post, error)

	// GetByID returns ErrNotFound when the post does not exist or the id is malformed
	GetByID(ctx context.Context, id string) (*Post, error)

	// List returns all posts ordered by Date descending
	List(ctx context.Context) ([]*Post, error)

	// Save persists the full aggregate if post.Version still matches the stored version.
	// Returns ErrConflict when it does not, ErrNotFound when the post is gone.
	Save(ctx context.Context, post *Post) (*Post, error)

	// Delete removes the post; returns ErrNotFound if it does not exist
	Delete(ctx context.Context, id string) error
}

// Validator checks create-post and add-comment payloads
type Validator interface {
	// ParsePostInput decodes and validates a raw JSON body
	ParsePostInput(body []byte) (PostInput, error)

	// ValidatePostInput applies the field rules to an already decoded input
	ValidatePostInput(input PostInput) error
}

// Cache is an optional read-through cache for single posts
// Set never replaces a cached post with an equal or lower Version and is a no-op
// for ids passed to Delete, so late writers cannot resurrect or roll back a post.
type Cache interface {
	Get(ctx context.Context, id string) (*Post, bool)
	Set(ctx context.Context, post *Post)
	Delete(ctx context.Context, id string)
}

// EventPublisher is an optional sink for post events
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
