package board

import (
	"errors"
	"fmt"

	"github.com/sujalbistaa/questlog/internal/store"
)

var (
	ErrNotFound       = errors.New("post not found")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("invalid secret key")
	ErrAlreadyUpvoted = errors.New("you have already upvoted this post")
	ErrStore          = errors.New("store failure")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// storeErr folds a backend error into the board's taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
