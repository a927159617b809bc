package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Postboard/internal/core/posts"
)

// GetHandler serves the public read endpoints
type GetHandler struct {
	service posts.Service
}

// NewGetHandler creates a new get handler
func NewGetHandler(service posts.Service) *GetHandler {
	return &GetHandler{
		service: service,
	}
}

// HandleTest handles GET /api/posts/test
func (h *GetHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Posts Works"})
}

// HandleList handles GET /api/posts
// Returns every post, newest first; an empty store is an empty array
func (h *GetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPosts(r.Context())
	if err != nil {
		handleServiceError(w, err, errNoPostsFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /api/posts/{id}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, postNotFoundWithID(id))
		return
	}
	writeJSON(w, http.StatusOK, post)
}
