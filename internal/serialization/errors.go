package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrMalformedHeader    = errors.New("malformed header")
	ErrUnknownDType       = errors.New("unknown dtype descriptor")
	ErrDTypeMismatch      = errors.New("dtype mismatch")
	ErrMisaligned         = errors.New("misaligned data")
	ErrKeyNotFound        = errors.New("key not found")
)

// ValidationError provides detailed information about archive directory
// validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "offset_overlap", "out_of_bounds")
	Key     string // Primary entry key involved
	Key2    string // Secondary entry key (for ordering and overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Key2 != "" {
		return fmt.Sprintf("%s: keys %q and %q: %s", e.Type, e.Key, e.Key2, e.Details)
	}
	if e.Key != "" {
		return fmt.Sprintf("%s: key %q: %s", e.Type, e.Key, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
