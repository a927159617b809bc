package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// CommentHandler handles adding and removing comments
type CommentHandler struct {
	service   posts.Service
	validator posts.Validator
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(service posts.Service, validator posts.Validator) *CommentHandler {
	return &CommentHandler{
		service:   service,
		validator: validator,
	}
}

// HandleAdd handles POST /api/posts/comment/{id}
// The body is validated before the post is looked up, so a bad body wins over a missing post
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "msg", "No token, authorization denied")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input, err := h.validator.ParsePostInput(body)
	if err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	post, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), userID, input)
	if err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// HandleRemove handles DELETE /api/posts/comment/{id}/{commentID}
func (h *CommentHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "msg", "No token, authorization denied")
		return
	}

	post, err := h.service.RemoveComment(
		r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "commentID"),
		userID,
	)
	if err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
