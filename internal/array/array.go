// Package array implements strided n-dimensional arrays over raw buffers:
// owning arrays, borrowed views, outer-batch arrays and shared arrays.
//
// All arrays use the column-major-first packed convention of the index
// package: axis 0 is contiguous.
//
// Views are lightweight values that alias their buffer, the way Go slices
// alias their backing array. A ViewMut is the only handle through which
// elements are written; code must not hold a ViewMut while any other view
// overlapping the same elements is in use. RcArray and SyncArray check that
// rule at run time for buffers shared between owners.
package array

import (
	"fmt"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// Array exclusively owns a buffer together with its layout.
type Array[T buffer.Elem] struct {
	layout
	buf *buffer.Buffer[T]
}

// Zeros allocates a packed, zero-initialized array of the given size.
// Panics if size has negative extents.
//
// Example:
//
//	a := array.Zeros[float32](index.New(3, 4))
//	v := a.View()
func Zeros[T buffer.Elem](size index.Index) *Array[T] {
	return ZerosWith[T](buffer.DefaultAllocator, size)
}

// ZerosWith is Zeros using an explicit allocator.
func ZerosWith[T buffer.Elem](a buffer.Allocator, size index.Index) *Array[T] {
	if err := size.Validate(); err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	buf := buffer.AllocWith[T](a, size.FlatLen())
	buf.ZeroFill()
	return &Array[T]{
		layout: packedLayout(size),
		buf:    buf,
	}
}

// WithMemory adopts buf as the packed storage for an array of the given
// size. buf must hold exactly size.FlatLen() elements.
func WithMemory[T buffer.Elem](size index.Index, buf *buffer.Buffer[T]) (*Array[T], error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if buf.Len() != size.FlatLen() {
		return nil, fmt.Errorf("%w: size %v needs %d elements, buffer holds %d", ErrShapeMismatch, size, size.FlatLen(), buf.Len())
	}
	return &Array[T]{
		layout: packedLayout(size),
		buf:    buf,
	}, nil
}

// FromSlice creates a packed array holding a copy of data.
func FromSlice[T buffer.Elem](size index.Index, data []T) (*Array[T], error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if size.FlatLen() != len(data) {
		return nil, fmt.Errorf("%w: size %v requires %d elements, but got %d", ErrShapeMismatch, size, size.FlatLen(), len(data))
	}
	a := Zeros[T](size)
	copy(a.buf.Slice(), data)
	return a, nil
}

// Buffer returns the owned buffer.
func (a *Array[T]) Buffer() *buffer.Buffer[T] {
	return a.buf
}

// DType returns the runtime element type.
func (a *Array[T]) DType() buffer.DataType {
	return buffer.DataTypeOf[T]()
}

// View returns a read-only view of the whole array.
func (a *Array[T]) View() View[T] {
	return View[T]{layout: a.layout, buf: a.buf}
}

// ViewMut returns a read-write view of the whole array.
func (a *Array[T]) ViewMut() ViewMut[T] {
	return ViewMut[T]{layout: a.layout, buf: a.buf}
}

// FlatView returns a rank-1 view over the array's elements.
// ok is false if the array is not packed.
func (a *Array[T]) FlatView() (v View[T], ok bool) {
	return a.View().Flat()
}

// FlatViewMut is the read-write form of FlatView.
func (a *Array[T]) FlatViewMut() (v ViewMut[T], ok bool) {
	return a.ViewMut().Flat()
}

// Reshape changes the array's size in place. The array must be packed and
// newSize must describe the same number of elements.
func (a *Array[T]) Reshape(newSize index.Index) error {
	if !a.IsPacked() {
		return fmt.Errorf("reshape %v: %w", a.size, ErrNotPacked)
	}
	if err := newSize.Validate(); err != nil {
		return err
	}
	if newSize.FlatLen() != a.Len() {
		return fmt.Errorf("%w: cannot reshape %v (%d elements) to %v (%d elements)", ErrShapeMismatch, a.size, a.Len(), newSize, newSize.FlatLen())
	}
	// Owned arrays always start at offset zero.
	a.layout = packedLayout(newSize)
	return nil
}

// At returns the element at the given coordinates.
// Panics if the coordinates are out of bounds.
func (a *Array[T]) At(coords ...int) T {
	return a.buf.Slice()[a.elem(coords)]
}

// Set stores value at the given coordinates.
// Panics if the coordinates are out of bounds.
func (a *Array[T]) Set(value T, coords ...int) {
	a.buf.Slice()[a.elem(coords)] = value
}

// Free releases the buffer. The array must not be used afterwards.
func (a *Array[T]) Free() error {
	if a.buf == nil {
		return nil
	}
	err := a.buf.Free()
	a.buf = nil
	return err
}

// String returns a human-readable description.
func (a *Array[T]) String() string {
	return fmt.Sprintf("Array[%s]%v", a.DType(), a.size)
}

// take moves the buffer out of the array, leaving it empty.
func (a *Array[T]) take() (layout, *buffer.Buffer[T]) {
	l, buf := a.layout, a.buf
	a.buf = nil
	return l, buf
}
