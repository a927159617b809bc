package post

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// mockPostService implements posts.Service for testing
type mockPostService struct {
	listFunc          func(ctx context.Context) ([]*posts.Post, error)
	getFunc           func(ctx context.Context, id string) (*posts.Post, error)
	createFunc        func(ctx context.Context, userID string, input posts.PostInput) (*posts.Post, error)
	deleteFunc        func(ctx context.Context, id, userID string) error
	likeFunc          func(ctx context.Context, id, userID string) (*posts.Post, error)
	unlikeFunc        func(ctx context.Context, id, userID string) (*posts.Post, error)
	addCommentFunc    func(ctx context.Context, id, userID string, input posts.PostInput) (*posts.Post, error)
	removeCommentFunc func(ctx context.Context, id, commentID, userID string) (*posts.Post, error)
}

func (m *mockPostService) ListPosts(ctx context.Context) ([]*posts.Post, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*posts.Post{}, nil
}

func (m *mockPostService) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &posts.Post{ID: id}, nil
}

func (m *mockPostService) CreatePost(ctx context.Context, userID string, input posts.PostInput) (*posts.Post, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, input)
	}
	post := posts.NewPost(userID, input)
	post.ID = "post-1"
	return post, nil
}

func (m *mockPostService) DeletePost(ctx context.Context, id, userID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *mockPostService) LikePost(ctx context.Context, id, userID string) (*posts.Post, error) {
	if m.likeFunc != nil {
		return m.likeFunc(ctx, id, userID)
	}
	return &posts.Post{ID: id, Likes: []posts.Like{{User: userID}}, Comments: []posts.Comment{}}, nil
}

func (m *mockPostService) UnlikePost(ctx context.Context, id, userID string) (*posts.Post, error) {
	if m.unlikeFunc != nil {
		return m.unlikeFunc(ctx, id, userID)
	}
	return &posts.Post{ID: id, Likes: []posts.Like{}, Comments: []posts.Comment{}}, nil
}

func (m *mockPostService) AddComment(ctx context.Context, id, userID string, input posts.PostInput) (*posts.Post, error) {
	if m.addCommentFunc != nil {
		return m.addCommentFunc(ctx, id, userID, input)
	}
	return &posts.Post{ID: id}, nil
}

func (m *mockPostService) RemoveComment(ctx context.Context, id, commentID, userID string) (*posts.Post, error) {
	if m.removeCommentFunc != nil {
		return m.removeCommentFunc(ctx, id, commentID, userID)
	}
	return &posts.Post{ID: id}, nil
}

func newTestValidator(t *testing.T) posts.Validator {
	t.Helper()
	v, err := posts.NewValidator(posts.DefaultTextMinLength, posts.DefaultTextMaxLength)
	require.NoError(t, err)
	return v
}

// newRequest builds a request with chi URL params and an optional authenticated user
func newRequest(method, target, body, userID string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = middleware.SetTestUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func TestHandleTest(t *testing.T) {
	handler := NewGetHandler(&mockPostService{})
	w := httptest.NewRecorder()
	handler.HandleTest(w, newRequest(http.MethodGet, "/api/posts/test", "", "", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Posts Works", decodeBody(t, w)["msg"])
}

func TestHandleList(t *testing.T) {
	t.Run("empty store returns empty array", func(t *testing.T) {
		handler := NewGetHandler(&mockPostService{})
		w := httptest.NewRecorder()
		handler.HandleList(w, newRequest(http.MethodGet, "/api/posts", "", "", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("storage failure reads as no posts found", func(t *testing.T) {
		handler := NewGetHandler(&mockPostService{
			listFunc: func(ctx context.Context) ([]*posts.Post, error) {
				return nil, posts.NewStorageError("list", fmt.Errorf("connection refused"))
			},
		})
		w := httptest.NewRecorder()
		handler.HandleList(w, newRequest(http.MethodGet, "/api/posts", "", "", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No posts found", decodeBody(t, w)["nopostsfound"])
	})
}

func TestHandleGet_NotFound(t *testing.T) {
	handler := NewGetHandler(&mockPostService{
		getFunc: func(ctx context.Context, id string) (*posts.Post, error) {
			return nil, posts.ErrNotFound
		},
	})
	w := httptest.NewRecorder()
	handler.HandleGet(w, newRequest(http.MethodGet, "/api/posts/abc", "", "", map[string]string{"id": "abc"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No post found with ID: abc", decodeBody(t, w)["nopostfound"])
}

func TestHandleCreate(t *testing.T) {
	t.Run("success uses authenticated user as owner", func(t *testing.T) {
		var gotUser string
		var gotInput posts.PostInput
		handler := NewCreateHandler(&mockPostService{
			createFunc: func(ctx context.Context, userID string, input posts.PostInput) (*posts.Post, error) {
				gotUser, gotInput = userID, input
				post := posts.NewPost(userID, input)
				post.ID = "post-1"
				return post, nil
			},
		}, newTestValidator(t))

		body := `{"text":"hi","name":"A","avatar":"x","user":"someone-else"}`
		w := httptest.NewRecorder()
		handler.HandleCreate(w, newRequest(http.MethodPost, "/api/posts", body, "user-1", nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "user-1", gotUser)
		assert.Equal(t, posts.PostInput{Text: "hi", Name: "A", Avatar: "x"}, gotInput)

		resp := decodeBody(t, w)
		assert.Equal(t, "user-1", resp["user"])
		assert.Equal(t, []interface{}{}, resp["likes"])
		assert.Equal(t, []interface{}{}, resp["comments"])
	})

	t.Run("validation failure returns field map", func(t *testing.T) {
		called := false
		handler := NewCreateHandler(&mockPostService{
			createFunc: func(ctx context.Context, userID string, input posts.PostInput) (*posts.Post, error) {
				called = true
				return nil, nil
			},
		}, newTestValidator(t))

		w := httptest.NewRecorder()
		handler.HandleCreate(w, newRequest(http.MethodPost, "/api/posts", `{"text":""}`, "user-1", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Text field is required", decodeBody(t, w)["text"])
		assert.False(t, called, "service must not be called for invalid input")
	})

	t.Run("wrong field type is rejected", func(t *testing.T) {
		handler := NewCreateHandler(&mockPostService{}, newTestValidator(t))
		w := httptest.NewRecorder()
		handler.HandleCreate(w, newRequest(http.MethodPost, "/api/posts", `{"text":42}`, "user-1", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w), "text")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewCreateHandler(&mockPostService{}, newTestValidator(t))
		w := httptest.NewRecorder()
		handler.HandleCreate(w, newRequest(http.MethodPost, "/api/posts", `{"text":"hi"}`, "", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		handler := NewCreateHandler(&mockPostService{}, newTestValidator(t))
		body := `{"text":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
		w := httptest.NewRecorder()
		handler.HandleCreate(w, newRequest(http.MethodPost, "/api/posts", body, "user-1", nil))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
		wantValue  interface{}
	}{
		{"success", nil, http.StatusOK, "success", true},
		{"not owner", posts.ErrNotAuthorized, http.StatusUnauthorized, "notauthorized", "User not authorized"},
		{"missing", posts.ErrNotFound, http.StatusNotFound, "postnotfound", "No post found"},
		{"conflict", posts.ErrConflict, http.StatusConflict, "conflict", "Post was modified concurrently, please retry"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "error", "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewDeleteHandler(&mockPostService{
				deleteFunc: func(ctx context.Context, id, userID string) error {
					assert.Equal(t, "p1", id)
					assert.Equal(t, "user-1", userID)
					return tt.err
				},
			})
			w := httptest.NewRecorder()
			handler.HandleDelete(w, newRequest(http.MethodDelete, "/api/posts/p1", "", "user-1", map[string]string{"id": "p1"}))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantValue, decodeBody(t, w)[tt.wantKey])
		})
	}
}

func TestHandleLikeAndUnlike(t *testing.T) {
	handler := NewLikeHandler(&mockPostService{
		likeFunc: func(ctx context.Context, id, userID string) (*posts.Post, error) {
			return nil, posts.ErrAlreadyLiked
		},
		unlikeFunc: func(ctx context.Context, id, userID string) (*posts.Post, error) {
			return nil, posts.ErrNotLiked
		},
	})
	params := map[string]string{"id": "p1"}

	w := httptest.NewRecorder()
	handler.HandleLike(w, newRequest(http.MethodPost, "/api/posts/like/p1", "", "user-1", params))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already liked this post", decodeBody(t, w)["alreadyliked"])

	w = httptest.NewRecorder()
	handler.HandleUnlike(w, newRequest(http.MethodPost, "/api/posts/unlike/p1", "", "user-1", params))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have not yet liked this post", decodeBody(t, w)["notliked"])
}

func TestHandleLike_Success(t *testing.T) {
	handler := NewLikeHandler(&mockPostService{})
	w := httptest.NewRecorder()
	handler.HandleLike(w, newRequest(http.MethodPost, "/api/posts/like/p1", "", "user-1", map[string]string{"id": "p1"}))

	require.Equal(t, http.StatusOK, w.Code)
	likes := decodeBody(t, w)["likes"].([]interface{})
	require.Len(t, likes, 1)
	assert.Equal(t, "user-1", likes[0].(map[string]interface{})["user"])
}

func TestHandleComment(t *testing.T) {
	t.Run("add forwards validated input", func(t *testing.T) {
		var got posts.PostInput
		handler := NewCommentHandler(&mockPostService{
			addCommentFunc: func(ctx context.Context, id, userID string, input posts.PostInput) (*posts.Post, error) {
				got = input
				return &posts.Post{ID: id}, nil
			},
		}, newTestValidator(t))

		w := httptest.NewRecorder()
		handler.HandleAdd(w, newRequest(http.MethodPost, "/api/posts/comment/p1", `{"text":"nice"}`, "user-1", map[string]string{"id": "p1"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "nice", got.Text)
	})

	t.Run("add to missing post", func(t *testing.T) {
		handler := NewCommentHandler(&mockPostService{
			addCommentFunc: func(ctx context.Context, id, userID string, input posts.PostInput) (*posts.Post, error) {
				return nil, posts.ErrNotFound
			},
		}, newTestValidator(t))

		w := httptest.NewRecorder()
		handler.HandleAdd(w, newRequest(http.MethodPost, "/api/posts/comment/p1", `{"text":"nice"}`, "user-1", map[string]string{"id": "p1"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No post found", decodeBody(t, w)["postnotfound"])
	})

	t.Run("remove missing comment", func(t *testing.T) {
		handler := NewCommentHandler(&mockPostService{
			removeCommentFunc: func(ctx context.Context, id, commentID, userID string) (*posts.Post, error) {
				assert.Equal(t, "c9", commentID)
				return nil, posts.ErrCommentNotFound
			},
		}, newTestValidator(t))

		w := httptest.NewRecorder()
		params := map[string]string{"id": "p1", "commentID": "c9"}
		handler.HandleRemove(w, newRequest(http.MethodDelete, "/api/posts/comment/p1/c9", "", "user-1", params))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Comment does not exist", decodeBody(t, w)["commentnotexists"])
	})
}
