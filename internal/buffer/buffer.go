package buffer

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

// ErrMisalignedMapping is returned when adopted memory cannot hold T.
var ErrMisalignedMapping = errors.New("mapped memory is not aligned for element type")

// Buffer exclusively owns a region of len elements of type T.
//
// A *Buffer has exactly one owner at a time: passing the pointer to
// array.WithMemory or another owner transfers it. Free releases the
// region once; later calls are no-ops.
type Buffer[T Elem] struct {
	data    []T
	phsz    int          // physical size in bytes
	alloc   string       // allocator name, for diagnostics
	release func() error // nil for GC-owned memory
}

// Alloc allocates a zeroed buffer of n elements from DefaultAllocator.
// Panics with *AllocError if the allocation cannot be satisfied.
func Alloc[T Elem](n int) *Buffer[T] {
	return AllocWith[T](DefaultAllocator, n)
}

// AllocWith allocates a zeroed buffer of n elements from a.
// Panics with *AllocError if the allocation cannot be satisfied.
func AllocWith[T Elem](a Allocator, n int) *Buffer[T] {
	size := elemSize[T]()
	if n < 0 || n > math.MaxInt/size {
		panic(&AllocError{Allocator: a.Name(), Len: n, ElemSize: size, Err: errors.New("invalid length")})
	}
	mem, release, err := a.Allocate(n * size)
	if err != nil {
		panic(&AllocError{Allocator: a.Name(), Len: n, ElemSize: size, Err: err})
	}
	return newBuffer[T](mem, n, a.Name(), release)
}

// Wrap adopts an existing Go slice without copying.
func Wrap[T Elem](data []T) *Buffer[T] {
	return &Buffer[T]{
		data:  data,
		phsz:  len(data) * elemSize[T](),
		alloc: "slice",
	}
}

// FromMapping adopts externally mapped memory, e.g. a memory-mapped file.
// release is invoked once by Free and never otherwise: slices taken from
// the buffer may outlive it, so an unfreed mapping leaks rather than
// disappearing under them.
func FromMapping[T Elem](mem []byte, release func() error) (*Buffer[T], error) {
	size := elemSize[T]()
	if len(mem)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMisalignedMapping, len(mem), size)
	}
	if len(mem) > 0 && uintptr(unsafe.Pointer(&mem[0]))%uintptr(elemAlign[T]()) != 0 {
		return nil, fmt.Errorf("%w: base address %p", ErrMisalignedMapping, &mem[0])
	}
	return newBuffer[T](mem, len(mem)/size, "mapping", release), nil
}

func newBuffer[T Elem](mem []byte, n int, alloc string, release func() error) *Buffer[T] {
	b := &Buffer[T]{
		phsz:    len(mem),
		alloc:   alloc,
		release: release,
	}
	if n > 0 {
		//nolint:gosec // unsafe.Slice for zero-copy reinterpretation, length checked by caller
		b.data = unsafe.Slice((*T)(unsafe.Pointer(&mem[0])), n)
	}
	return b
}

// Len returns the number of elements.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// PhysicalSize returns the size of the backing region in bytes.
func (b *Buffer[T]) PhysicalSize() int {
	return b.phsz
}

// DType returns the runtime element type.
func (b *Buffer[T]) DType() DataType {
	return DataTypeOf[T]()
}

// ZeroFill writes the zero bit pattern across the whole buffer.
func (b *Buffer[T]) ZeroFill() {
	clear(b.data)
}

// Slice returns the elements. The slice aliases the buffer and must not be
// used after Free.
func (b *Buffer[T]) Slice() []T {
	return b.data
}

// Bytes returns the elements reinterpreted as bytes (zero-copy).
func (b *Buffer[T]) Bytes() []byte {
	return AsBytes(b.data)
}

// AsBytes reinterprets a slice of elements as bytes (zero-copy).
func AsBytes[T Elem](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation, bounded by len(s)
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*elemSize[T]())
}

// Ptr returns the base address of the buffer.
//
// It exists for handing memory to native kernels. The caller must keep the
// buffer reachable and prove that every address it derives lies within
// [Ptr, Ptr+PhysicalSize).
func (b *Buffer[T]) Ptr() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b.data))
}

// Free releases the region. The buffer is empty afterwards.
func (b *Buffer[T]) Free() error {
	release := b.release
	b.data = nil
	b.phsz = 0
	b.release = nil
	if release == nil {
		return nil
	}
	return release()
}

// String implements fmt.Stringer.
func (b *Buffer[T]) String() string {
	return fmt.Sprintf("Buffer[%s](len=%d, bytes=%d, %s)", b.DType(), len(b.data), b.phsz, b.alloc)
}
