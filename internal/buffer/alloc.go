package buffer

import (
	"fmt"
	"unsafe"
)

// Alignment is the base-address alignment, in bytes, of every allocation.
// It matches a cache line and the widest SIMD loads BLAS kernels issue.
const Alignment = 64

// Allocator hands out zeroed, Alignment-aligned byte regions.
//
// Allocate returns the region and an optional release function. A nil
// release means the region is owned by the Go heap and reclaimed by the GC.
type Allocator interface {
	Allocate(n int) (mem []byte, release func() error, err error)
	Name() string
}

// HeapAllocator allocates from the Go heap.
type HeapAllocator struct{}

// Name returns the allocator name.
func (HeapAllocator) Name() string {
	return "heap"
}

// Allocate returns n zeroed bytes whose base address is Alignment-aligned.
func (HeapAllocator) Allocate(n int) ([]byte, func() error, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("negative allocation size %d", n)
	}
	if n == 0 {
		return nil, nil, nil
	}
	raw := make([]byte, n+Alignment-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	off := int((Alignment - addr%Alignment) % Alignment)
	return raw[off : off+n : off+n], nil, nil
}

// DefaultAllocator is used by Alloc.
var DefaultAllocator Allocator = HeapAllocator{}

// AllocError describes an allocation the allocator could not satisfy.
// Buffers panic with an *AllocError: running out of memory is not a
// recoverable condition for numeric workloads.
type AllocError struct {
	Allocator string
	Len       int
	ElemSize  int
	Err       error
}

// Error implements the error interface.
func (e *AllocError) Error() string {
	return fmt.Sprintf("buffer: %s allocator failed for %d elements of %d bytes: %v", e.Allocator, e.Len, e.ElemSize, e.Err)
}

// Unwrap returns the underlying allocator error.
func (e *AllocError) Unwrap() error {
	return e.Err
}
