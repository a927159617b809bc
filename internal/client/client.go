package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Postboard/internal/auth"
	"Postboard/internal/core/posts"
)

// APIError is a non-2xx response from the posts API
type APIError struct {
	Body   map[string]interface{}
	Status int
}

func (e *APIError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("posts api: status %d", e.Status)
	}
	parts := make([]string, 0, len(e.Body))
	for k, v := range e.Body {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v))
	}
	return fmt.Sprintf("posts api: status %d: %s", e.Status, strings.Join(parts, ", "))
}

// Client talks to the posts REST API
type Client struct {
	httpClient *http.Client
	session    *Session
	baseURL    string
}

// New creates a client for the API at baseURL (e.g. http://localhost:5000)
// session can be nil; a fresh logged-out session is used
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Session returns the client's auth session
func (c *Client) Session() *Session {
	return c.session
}

// Login decodes token's claims (without verifying them; the server does that)
// and makes it the current identity
func (c *Client) Login(token string) (*State, error) {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return nil, err
	}
	return c.session.Dispatch(SetCurrentUser{Payload: CurrentUser{
		User: User{
			ID:     claims.Subject,
			Name:   claims.Name,
			Avatar: claims.Avatar,
		},
		Token: token,
	}}), nil
}

// Logout clears the current identity
func (c *Client) Logout() *State {
	return c.session.Dispatch(SetCurrentUser{})
}

// Test calls GET /api/posts/test
func (c *Client) Test(ctx context.Context) (string, error) {
	var out struct {
		Msg string `json:"msg"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/posts/test", nil, &out); err != nil {
		return "", err
	}
	return out.Msg, nil
}

// ListPosts returns all posts, newest first
func (c *Client) ListPosts(ctx context.Context) ([]*posts.Post, error) {
	var out []*posts.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost returns one post
func (c *Client) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	var out posts.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost creates a post as the current user
func (c *Client) CreatePost(ctx context.Context, input posts.PostInput) (*posts.Post, error) {
	var out posts.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost deletes a post owned by the current user
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

// LikePost likes a post
func (c *Client) LikePost(ctx context.Context, id string) (*posts.Post, error) {
	return c.postOp(ctx, http.MethodPost, "/api/posts/like/"+url.PathEscape(id), nil)
}

// UnlikePost removes the current user's like
func (c *Client) UnlikePost(ctx context.Context, id string) (*posts.Post, error) {
	return c.postOp(ctx, http.MethodPost, "/api/posts/unlike/"+url.PathEscape(id), nil)
}

// AddComment comments on a post
func (c *Client) AddComment(ctx context.Context, id string, input posts.PostInput) (*posts.Post, error) {
	return c.postOp(ctx, http.MethodPost, "/api/posts/comment/"+url.PathEscape(id), input)
}

// RemoveComment removes a comment from a post
func (c *Client) RemoveComment(ctx context.Context, id, commentID string) (*posts.Post, error) {
	path := "/api/posts/comment/" + url.PathEscape(id) + "/" + url.PathEscape(commentID)
	return c.postOp(ctx, http.MethodDelete, path, nil)
}

func (c *Client) postOp(ctx context.Context, method, path string, body interface{}) (*posts.Post, error) {
	var out posts.Post
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if state := c.session.State(); state.Token != "" {
		req.Header.Set("Authorization", "Bearer "+state.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, &apiErr.Body)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
