//go:build !unix

package buffer

// MmapAllocator falls back to the Go heap on platforms without anonymous
// mappings.
type MmapAllocator struct{}

// Name returns the allocator name.
func (MmapAllocator) Name() string {
	return "mmap"
}

// Allocate returns n zeroed heap bytes.
func (MmapAllocator) Allocate(n int) ([]byte, func() error, error) {
	return HeapAllocator{}.Allocate(n)
}
