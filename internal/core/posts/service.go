package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	// maxConflictRetries bounds how often a mutation is reapplied after a version conflict
	maxConflictRetries = 3

	// conflictRetryWait is the pause between conflicting attempts
	conflictRetryWait = 15 * time.Millisecond
)

type postService struct {
	repo       Repository
	validator  Validator
	cache      Cache          // Optional
	events     EventPublisher // Optional
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	newBackoff func() retry.Backoff
}

// NewPostService creates a new post service
// cache and events can be nil if not needed (e.g., in tests or minimal setups)
func NewPostService(
	repo Repository,
	validator Validator,
	cache Cache, // Optional: can be nil
	events EventPublisher, // Optional: can be nil
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &postService{
		repo:      repo,
		validator: validator,
		cache:     cache,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxConflictRetries, retry.NewConstant(conflictRetryWait))
		},
	}
}

// ListPosts returns all posts, newest first
func (s *postService) ListPosts(ctx context.Context) ([]*Post, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return list, nil
}

// GetPost returns a post, consulting the cache first
func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, id); ok {
			return cached, nil
		}
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, post)
	}
	return post, nil
}

// CreatePost creates a post owned by userID
// Flow: Validate -> Build aggregate -> Repository.Create -> Cache -> Publish
func (s *postService) CreatePost(ctx context.Context, userID string, input PostInput) (*Post, error) {
	if userID == "" {
		return nil, fmt.Errorf("no authenticated user - authentication required")
	}
	if err := s.validator.ValidatePostInput(input); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, NewPost(userID, input))
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created", "post_id", created.ID, "user", userID)

	if s.cache != nil {
		s.cache.Set(ctx, created)
	}
	s.publish(ctx, Event{Type: EventPostCreated, PostID: created.ID, UserID: userID})

	return created, nil
}

// DeletePost deletes a post after checking ownership
func (s *postService) DeletePost(ctx context.Context, id, userID string) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := post.AssertOwner(userID); err != nil {
		s.logger.Warn("post delete rejected: not owner", "post_id", id, "user", userID)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", "post_id", id, "user", userID)

	if s.cache != nil {
		s.cache.Delete(ctx, id)
	}
	s.publish(ctx, Event{Type: EventPostDeleted, PostID: id, UserID: userID})

	return nil
}

// LikePost adds userID to the likes
func (s *postService) LikePost(ctx context.Context, id, userID string) (*Post, error) {
	post, err := s.mutate(ctx, id, func(p *Post) error {
		return p.Like(userID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{Type: EventPostLiked, PostID: id, UserID: userID})
	return post, nil
}

// UnlikePost removes userID from the likes
func (s *postService) UnlikePost(ctx context.Context, id, userID string) (*Post, error) {
	post, err := s.mutate(ctx, id, func(p *Post) error {
		return p.Unlike(userID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{Type: EventPostUnliked, PostID: id, UserID: userID})
	return post, nil
}

// AddComment prepends a comment authored by userID
func (s *postService) AddComment(ctx context.Context, id, userID string, input PostInput) (*Post, error) {
	if err := s.validator.ValidatePostInput(input); err != nil {
		return nil, err
	}

	// Id and timestamp are fixed outside the retry loop so a retried attempt writes the same comment
	commentID := s.newID()
	at := s.now()

	post, err := s.mutate(ctx, id, func(p *Post) error {
		p.AddComment(input, userID, commentID, at)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{Type: EventCommentAdded, PostID: id, UserID: userID, CommentID: commentID})
	return post, nil
}

// RemoveComment removes a comment by id
func (s *postService) RemoveComment(ctx context.Context, id, commentID, userID string) (*Post, error) {
	post, err := s.mutate(ctx, id, func(p *Post) error {
		return p.RemoveComment(commentID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, Event{Type: EventCommentRemoved, PostID: id, UserID: userID, CommentID: commentID})
	return post, nil
}

// mutate loads the post, applies fn and saves it.
// A version conflict reloads and reapplies fn; any other error is returned as is.
func (s *postService) mutate(ctx context.Context, id string, fn func(*Post) error) (*Post, error) {
	var saved *Post

	err := retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		post, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := fn(post); err != nil {
			return err
		}

		saved, err = s.repo.Save(ctx, post)
		if errors.Is(err, ErrConflict) {
			s.logger.Debug("post save conflict, retrying", "post_id", id, "version", post.Version)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Warn("post save conflict, giving up", "post_id", id)
		}
		return nil, err
	}

	// Set ignores saved if a newer version was cached or the post was deleted meanwhile
	if s.cache != nil {
		s.cache.Set(ctx, saved)
	}
	return saved, nil
}

func (s *postService) publish(ctx context.Context, event Event) {
	if s.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish post event",
			"type", event.Type,
			"post_id", event.PostID,
			"error", err)
	}
}
