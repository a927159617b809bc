package post

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// LikeHandler handles like and unlike requests
type LikeHandler struct {
	service posts.Service
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(service posts.Service) *LikeHandler {
	return &LikeHandler{
		service: service,
	}
}

// HandleLike handles POST /api/posts/like/{id}
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.LikePost)
}

// HandleUnlike handles POST /api/posts/unlike/{id}
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.UnlikePost)
}

func (h *LikeHandler) handle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, userID string) (*posts.Post, error),
) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "msg", "No token, authorization denied")
		return
	}

	post, err := op(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
