package post

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"Postboard/internal/core/posts"
)

// maxBodyBytes bounds create-post and add-comment bodies
const maxBodyBytes = 1 * 1024 * 1024

// notFound is the single-key body a route answers with when its post is missing
type notFound struct {
	key     string
	message string
}

var (
	errNoPostsFound = notFound{key: "nopostsfound", message: "No posts found"}
	errPostNotFound = notFound{key: "postnotfound", message: "No post found"}
)

// postNotFoundWithID is the body used by GET /{id}
func postNotFoundWithID(id string) notFound {
	return notFound{key: "nopostfound", message: "No post found with ID: " + id}
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log encoding errors but don't return error response (headers already sent)
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error body of the form {key: message}
func writeError(w http.ResponseWriter, statusCode int, key, message string) {
	writeJSON(w, statusCode, map[string]string{key: message})
}

// handleServiceError maps service errors to HTTP responses
// Storage failures answer with the route's not-found body; the cause is only logged.
func handleServiceError(w http.ResponseWriter, err error, nf notFound) {
	if validationErrs, ok := posts.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, validationErrs)
		return
	}

	switch {

	case errors.Is(err, posts.ErrNotFound):
		writeError(w, http.StatusNotFound, nf.key, nf.message)

	case errors.Is(err, posts.ErrStorageUnavailable):
		log.Printf("ERROR: storage unavailable: %v", err)
		writeError(w, http.StatusNotFound, nf.key, nf.message)

	case errors.Is(err, posts.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, "notauthorized", "User not authorized")

	case errors.Is(err, posts.ErrAlreadyLiked):
		writeError(w, http.StatusBadRequest, "alreadyliked", "User already liked this post")

	case errors.Is(err, posts.ErrNotLiked):
		writeError(w, http.StatusBadRequest, "notliked", "You have not yet liked this post")

	case errors.Is(err, posts.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, "commentnotexists", "Comment does not exist")

	case errors.Is(err, posts.ErrConflict):
		writeError(w, http.StatusConflict, "conflict",
			"Post was modified concurrently, please retry")

	default:
		// Don't leak internal error details to clients
		log.Printf("Unexpected error in post handler: %v", err)
		writeError(w, http.StatusInternalServerError, "error", "An internal error occurred")
	}
}

// readBody reads a size-limited request body, answering 413 when it is too large
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "error", "Request body too large (max 1MB)")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "body", "Invalid request body")
		return nil, false
	}
	return body, true
}
