package post

import (
	"net/http"

	"Postboard/internal/api/middleware"
	"Postboard/internal/core/posts"
)

// CreateHandler handles post creation requests
type CreateHandler struct {
	service   posts.Service
	validator posts.Validator
}

// NewCreateHandler creates a new create handler
func NewCreateHandler(service posts.Service, validator posts.Validator) *CreateHandler {
	return &CreateHandler{
		service:   service,
		validator: validator,
	}
}

// HandleCreate handles POST /api/posts
// The owner is always the authenticated user; a client-sent "user" field is ignored
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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

	post, err := h.service.CreatePost(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err, errPostNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}
