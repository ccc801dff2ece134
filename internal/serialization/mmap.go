package serialization

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// Map memory-maps a single-array NPY file and returns an array whose buffer
// aliases the mapping. The mapping is copy-on-write: writes through the
// array are private and never reach the file. Free unmaps the file.
func Map[T buffer.Elem](path string) (*array.Array[T], error) {
	m, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	a, err := mapArray[T](m, m.Unmap)
	if err != nil {
		_ = m.Unmap()
		return nil, err
	}
	return a, nil
}

// mapFile maps the whole file copy-on-write. The file can be closed once
// mapped.
func mapFile(path string) (mmap.MMap, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for array loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < NpyPreludeSize {
		return nil, fmt.Errorf("file too small: %d bytes", stat.Size())
	}

	m, err := mmap.Map(f, mmap.COPY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return m, nil
}

// mapArray decodes the NPY payload in mem without copying the data.
// release, which may be nil, is handed to the array's buffer.
func mapArray[T buffer.Elem](mem []byte, release func() error) (*array.Array[T], error) {
	h, err := ReadHeader(bytes.NewReader(mem))
	if err != nil {
		return nil, err
	}
	if err := checkDescr[T](h); err != nil {
		return nil, err
	}
	if err := checkAvailable(h, int64(len(mem))); err != nil {
		return nil, err
	}

	start := h.DataOffset()
	end := start + h.DataSize()
	buf, err := buffer.FromMapping[T](mem[start:end:end], release)
	if err != nil {
		return nil, err
	}
	return array.WithMemory(h.Shape, buf)
}
