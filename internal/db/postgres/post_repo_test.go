package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
	"Postboard/internal/db/storetest"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping test - TEST_DATABASE_URL not set")
	}

	db, err := Open(dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, ""))
	return db
}

func TestPostgresPostRepo_Contract(t *testing.T) {
	db := setupTestDB(t)

	storetest.Run(t, func(t *testing.T) posts.Repository {
		_, err := db.ExecContext(context.Background(), "TRUNCATE posts")
		require.NoError(t, err)
		return NewPostRepository(db)
	}, "00000000-0000-0000-0000-000000000000")
}
