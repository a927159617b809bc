package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"Postboard/internal/core/posts"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
// Each post is one row; likes and comments live in JSONB columns so the aggregate is saved atomically
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

// Create inserts a new post; the database assigns id, date and version
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	likesJSON, commentsJSON, err := marshalEmbedded(post)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO posts (
			user_id, text, name, avatar,
			likes, comments, date, version
		) VALUES (
			$1, $2, $3, $4,
			$5::jsonb, $6::jsonb, NOW(), 0
		)
		RETURNING id, date, version
	`

	stored := post.Clone()
	err = r.db.QueryRowContext(
		ctx, query,
		post.User, post.Text, post.Name, post.Avatar,
		likesJSON, commentsJSON,
	).Scan(&stored.ID, &stored.Date, &stored.Version)
	if err != nil {
		return nil, posts.NewStorageError("create", fmt.Errorf("failed to insert post: %w", err))
	}

	normalize(stored)
	return stored, nil
}

// GetByID retrieves a post by id
// Ids that are not UUIDs can never exist, so they short-circuit to ErrNotFound
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posts.ErrNotFound
	}

	query := `
		SELECT
			id, user_id, text, name, avatar,
			likes, comments, date, version
		FROM posts
		WHERE id = $1
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, posts.NewStorageError("get", fmt.Errorf("failed to get post by id: %w", err))
	}

	return post, nil
}

// List returns all posts ordered by date descending
func (r *postgresPostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	query := `
		SELECT
			id, user_id, text, name, avatar,
			likes, comments, date, version
		FROM posts
		ORDER BY date DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, posts.NewStorageError("list", fmt.Errorf("failed to list posts: %w", err))
	}
	defer func() { _ = rows.Close() }()

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, posts.NewStorageError("list", fmt.Errorf("failed to scan post: %w", err))
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, posts.NewStorageError("list", fmt.Errorf("error iterating posts: %w", err))
	}

	return result, nil
}

// Save writes the full aggregate if the stored version still equals post.Version
func (r *postgresPostRepo) Save(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	if _, err := uuid.Parse(post.ID); err != nil {
		return nil, posts.ErrNotFound
	}

	likesJSON, commentsJSON, err := marshalEmbedded(post)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE posts
		SET text = $2,
			name = $3,
			avatar = $4,
			likes = $5::jsonb,
			comments = $6::jsonb,
			version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING user_id, date, version
	`

	stored := post.Clone()
	err = r.db.QueryRowContext(
		ctx, query,
		post.ID, post.Text, post.Name, post.Avatar,
		likesJSON, commentsJSON, post.Version,
	).Scan(&stored.User, &stored.Date, &stored.Version)

	if err == sql.ErrNoRows {
		// Either the post is gone or someone saved first
		exists, existsErr := r.exists(ctx, post.ID)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, posts.ErrNotFound
		}
		return nil, posts.ErrConflict
	}
	if err != nil {
		return nil, posts.NewStorageError("save", fmt.Errorf("failed to update post: %w", err))
	}

	normalize(stored)
	return stored, nil
}

// Delete removes a post
func (r *postgresPostRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return posts.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return posts.NewStorageError("delete", fmt.Errorf("failed to delete post: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return posts.NewStorageError("delete", fmt.Errorf("failed to check delete result: %w", err))
	}
	if rowsAffected == 0 {
		return posts.ErrNotFound
	}

	return nil
}

func (r *postgresPostRepo) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, posts.NewStorageError("save", fmt.Errorf("failed to check post existence: %w", err))
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	var post posts.Post
	var likesJSON, commentsJSON []byte

	if err := row.Scan(
		&post.ID, &post.User, &post.Text, &post.Name, &post.Avatar,
		&likesJSON, &commentsJSON, &post.Date, &post.Version,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(likesJSON, &post.Likes); err != nil {
		return nil, fmt.Errorf("failed to decode likes: %w", err)
	}
	if err := json.Unmarshal(commentsJSON, &post.Comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}

	normalize(&post)
	return &post, nil
}

// marshalEmbedded serializes likes and comments for the JSONB columns.
// lib/pq sends []byte as bytea, so the JSON is passed as text.
func marshalEmbedded(post *posts.Post) (string, string, error) {
	likes := post.Likes
	if likes == nil {
		likes = []posts.Like{}
	}
	comments := post.Comments
	if comments == nil {
		comments = []posts.Comment{}
	}

	likesJSON, err := json.Marshal(likes)
	if err != nil {
		return "", "", posts.NewStorageError("encode", fmt.Errorf("failed to encode likes: %w", err))
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return "", "", posts.NewStorageError("encode", fmt.Errorf("failed to encode comments: %w", err))
	}
	return string(likesJSON), string(commentsJSON), nil
}

func normalize(post *posts.Post) {
	if post.Likes == nil {
		post.Likes = []posts.Like{}
	}
	if post.Comments == nil {
		post.Comments = []posts.Comment{}
	}
}
