package array

import (
	"errors"

	"github.com/born-ml/memarray/internal/index"
)

// Common errors.
var (
	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrNotPacked      = errors.New("array is not packed")
	ErrBatchTooLarge  = errors.New("batch size exceeds maximum")
	ErrBorrowConflict = errors.New("conflicting borrow")
	ErrReleased       = errors.New("handle already released")

	// Re-exported from the index algebra so callers need a single import.
	ErrOutOfBounds  = index.ErrOutOfBounds
	ErrRankMismatch = index.ErrRankMismatch
)
