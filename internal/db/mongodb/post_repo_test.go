package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
	"Postboard/internal/db/storetest"
)

func TestMongoPostRepo_Contract(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping test - TEST_MONGODB_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(fmt.Sprintf("postboard_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	require.NoError(t, EnsureIndexes(ctx, db))

	storetest.Run(t, func(t *testing.T) posts.Repository {
		require.NoError(t, db.Collection(CollectionName).Drop(ctx))
		return NewPostRepository(db)
	}, "000000000000000000000000")
}
