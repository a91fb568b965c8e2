// Package apperr defines sentinel errors shared across service boundaries.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid document id")

	// ErrEmbeddingUnavailable is returned when the embedding-generation
	// service cannot be reached or times out. It is the only hard failure
	// class of the search path.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
