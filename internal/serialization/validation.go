package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for archive directories.
const (
	MaxHeaderSize  = 100 * 1024 * 1024 // 100MB - maximum archive directory size
	MaxEntryCount  = 100_000           // Maximum number of arrays in an archive
	MaxKeyLen      = 4096              // Maximum key length in bytes
	maxPayloadSize = 1 << 62
)

// ValidateKey checks an archive key.
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{
			Type:    "invalid_key",
			Details: "empty key",
		}
	}
	if len(key) > MaxKeyLen {
		return &ValidationError{
			Type:    "key_too_long",
			Key:     key[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(key), MaxKeyLen),
		}
	}
	if strings.Contains(key, "\x00") {
		return &ValidationError{
			Type:    "invalid_key",
			Key:     key,
			Details: "contains null byte",
		}
	}
	return nil
}

// ValidateEntries checks a decoded archive directory against the file it
// came from: keys valid, unique and sorted; payloads 16-byte aligned,
// inside [dataStart, fileSize) and not overlapping.
func ValidateEntries(entries []ArchiveEntry, dataStart, fileSize uint64) error {
	if len(entries) > MaxEntryCount {
		return &ValidationError{
			Type:    "too_many_entries",
			Details: fmt.Sprintf("got %d, max %d", len(entries), MaxEntryCount),
		}
	}

	for i, e := range entries {
		if err := ValidateKey(e.Key); err != nil {
			return err
		}
		if i > 0 && entries[i-1].Key >= e.Key {
			typ := "unsorted_keys"
			if entries[i-1].Key == e.Key {
				typ = "duplicate_key"
			}
			return &ValidationError{
				Type:    typ,
				Key:     entries[i-1].Key,
				Key2:    e.Key,
				Details: "directory must be in strictly increasing key order",
			}
		}
		if e.Offset%ArchiveAlignment != 0 {
			return &ValidationError{
				Type:    "misaligned",
				Key:     e.Key,
				Details: fmt.Sprintf("offset %d is not a multiple of %d", e.Offset, ArchiveAlignment),
			}
		}
		// Check bounds - prevent reading beyond file. Written without
		// Offset+ByteLength, which can wrap.
		if e.ByteLength > maxPayloadSize || e.Offset < dataStart || e.Offset > fileSize ||
			e.ByteLength > fileSize-e.Offset {
			return &ValidationError{
				Type:    "out_of_bounds",
				Key:     e.Key,
				Details: fmt.Sprintf("offset %d length %d outside data section [%d-%d]",
					e.Offset, e.ByteLength, dataStart, fileSize),
			}
		}
	}

	// Sort entries by offset for efficient overlap detection.
	sorted := make([]ArchiveEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if prev.ByteLength > next.Offset-prev.Offset {
			return &ValidationError{
				Type:    "offset_overlap",
				Key:     prev.Key,
				Key2:    next.Key,
				Details: fmt.Sprintf("region at %d (length %d) overlaps region at %d",
					prev.Offset, prev.ByteLength, next.Offset),
			}
		}
	}
	return nil
}
