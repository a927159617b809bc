package posts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for post operations
var (
	// ErrNotFound is returned when a post does not exist (or the id is malformed)
	ErrNotFound = errors.New("post not found")

	// ErrCommentNotFound is returned when a comment id is not present on the post
	ErrCommentNotFound = errors.New("comment does not exist")

	// ErrAlreadyLiked is returned when the user already appears in the post's likes
	ErrAlreadyLiked = errors.New("user already liked this post")

	// ErrNotLiked is returned when unliking a post the user has not liked
	ErrNotLiked = errors.New("user has not yet liked this post")

	// ErrNotAuthorized is returned when a non-owner tries to delete a post
	ErrNotAuthorized = errors.New("user not authorized")

	// ErrConflict is returned by Repository.Save when the stored version moved on
	ErrConflict = errors.New("post was modified concurrently")

	// ErrStorageUnavailable is matched by every StorageError
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationErrors maps request fields to human readable messages
// It is returned by the Validator and rendered verbatim as a 400 body
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError checks if err is (or wraps) ValidationErrors
func IsValidationError(err error) bool {
	var valErr ValidationErrors
	return errors.As(err, &valErr)
}

// AsValidationErrors extracts the field map from err
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var valErr ValidationErrors
	if errors.As(err, &valErr) {
		return valErr, true
	}
	return nil, false
}

// StorageError wraps a store driver failure
type StorageError struct {
	Err error
	Op  string // e.g. "get", "save"
}

// NewStorageError wraps a driver error for the given store operation
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes every StorageError match ErrStorageUnavailable
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// IsNotFound checks if the post or comment was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCommentNotFound)
}
