// Package storetest holds the behaviour every posts.Repository implementation must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) posts.Repository

// Run exercises repo-independent Repository behaviour.
// missingID must be well-formed for the store but never assigned.
func Run(t *testing.T, newRepo Factory, missingID string) {
	ctx := context.Background()

	t.Run("create assigns id date and version", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi", Name: "A", Avatar: "x"}))
		require.NoError(t, err)

		assert.NotEmpty(t, created.ID)
		assert.False(t, created.Date.IsZero())
		assert.Equal(t, int64(0), created.Version)
		assert.Equal(t, "u1", created.User)
		assert.NotNil(t, created.Likes)
		assert.NotNil(t, created.Comments)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "hi", got.Text)
		assert.Equal(t, "A", got.Name)
		assert.Equal(t, []posts.Like{}, got.Likes)
		assert.Equal(t, []posts.Comment{}, got.Comments)
	})

	t.Run("missing and malformed ids are not found", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{missingID, "not-an-id", ""} {
			_, err := repo.GetByID(ctx, id)
			assert.ErrorIs(t, err, posts.ErrNotFound, "id %q", id)
			assert.ErrorIs(t, repo.Delete(ctx, id), posts.ErrNotFound, "id %q", id)
		}
	})

	t.Run("list is newest first", func(t *testing.T) {
		repo := newRepo(t)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		for _, text := range []string{"one", "two", "three", "four"} {
			_, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: text}))
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}

		list, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "four", list[0].Text)
		assert.Equal(t, "one", list[3].Text)
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].Date.After(list[i-1].Date))
		}
	})

	t.Run("save round trips embedded likes and comments", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi"}))
		require.NoError(t, err)

		require.NoError(t, created.Like("u2"))
		at := time.Now().UTC().Truncate(time.Millisecond)
		created.AddComment(posts.PostInput{Text: "nice", Name: "B"}, "u2", "c1", at)

		saved, err := repo.Save(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.Version)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, []posts.Like{{User: "u2"}}, got.Likes)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, "c1", got.Comments[0].ID)
		assert.Equal(t, "nice", got.Comments[0].Text)
		assert.Equal(t, "u2", got.Comments[0].User)
		assert.True(t, at.Equal(got.Comments[0].Date))
	})

	t.Run("save owner is immutable", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("owner", posts.PostInput{Text: "hi"}))
		require.NoError(t, err)

		created.User = "thief"
		saved, err := repo.Save(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, "owner", saved.User)
	})

	t.Run("stale save conflicts", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi"}))
		require.NoError(t, err)

		first := created.Clone()
		second := created.Clone()
		require.NoError(t, first.Like("a"))
		require.NoError(t, second.Like("b"))

		_, err = repo.Save(ctx, first)
		require.NoError(t, err)
		_, err = repo.Save(ctx, second)
		assert.ErrorIs(t, err, posts.ErrConflict)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []posts.Like{{User: "a"}}, got.Likes)
	})

	t.Run("save after delete is not found", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi"}))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.Save(ctx, created)
		assert.ErrorIs(t, err, posts.ErrNotFound)
		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, posts.ErrNotFound)
	})

	t.Run("concurrent saves never lose updates", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi"}))
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p := created.Clone()
				_ = p.Like(string(rune('a' + i)))
				_, err := repo.Save(ctx, p)
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
					return
				}
				if !errors.Is(err, posts.ErrConflict) {
					t.Errorf("unexpected save error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, wins, "exactly one writer holding version 0 may win")
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, got.Likes, 1)
		assert.Equal(t, int64(1), got.Version)
	})
}
