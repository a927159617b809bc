package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
	"Postboard/internal/db/storetest"
)

func TestMemoryPostRepo_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) posts.Repository {
		return NewPostRepository()
	}, "00000000-0000-0000-0000-000000000000")
}

func TestMemoryPostRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository()

	created, err := repo.Create(ctx, posts.NewPost("u1", posts.PostInput{Text: "hi"}))
	require.NoError(t, err)

	// Mutating a returned post must not leak into the store
	created.Likes = append(created.Likes, posts.Like{User: "ghost"})
	created.Text = "changed"

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)
	assert.Equal(t, "hi", got.Text)
}
