package vector

import "errors"

var (
	// ErrNotInitialized is returned by operations attempted before Initialize.
	// Recoverable by retrying after initialization.
	ErrNotInitialized = errors.New("vector store not initialized")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the store dimension. The store is left unchanged.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
