package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// DeleteHandler handles post deletion requests
type DeleteHandler struct {
	service posts.Service
}

// NewDeleteHandler creates a new delete handler
func NewDeleteHandler(service posts.Service) *DeleteHandler {
	return &DeleteHandler{
		service: service,
	}
}

// HandleDelete handles DELETE /api/posts/{id}
// Only the post's owner may delete it
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "msg", "No token, authorization denied")
		return
	}

	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
