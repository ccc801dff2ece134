package array

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// View is a read-only window over a buffer with its own layout.
type View[T buffer.Elem] struct {
	layout
	buf *buffer.Buffer[T]
}

// ViewMut is a read-write window over a buffer with its own layout.
type ViewMut[T buffer.Elem] struct {
	layout
	buf *buffer.Buffer[T]
}

// NewView builds a view with an explicit layout, checking that every
// element it addresses lies inside buf.
func NewView[T buffer.Elem](buf *buffer.Buffer[T], size, offset, stride index.Index) (View[T], error) {
	l := layout{size: size, offset: offset, stride: stride}
	if err := l.validate(buf.Len()); err != nil {
		return View[T]{}, err
	}
	return View[T]{layout: l, buf: buf}, nil
}

// NewViewMut is the read-write form of NewView.
func NewViewMut[T buffer.Elem](buf *buffer.Buffer[T], size, offset, stride index.Index) (ViewMut[T], error) {
	l := layout{size: size, offset: offset, stride: stride}
	if err := l.validate(buf.Len()); err != nil {
		return ViewMut[T]{}, err
	}
	return ViewMut[T]{layout: l, buf: buf}, nil
}

// DType returns the runtime element type.
func (v View[T]) DType() buffer.DataType {
	return buffer.DataTypeOf[T]()
}

// Slice narrows the view to one range per axis. The result aliases the
// same elements; nothing is copied.
//
// Example:
//
//	// rows 1..3 of every column of a [4, 5] view
//	sub, err := v.Slice(index.Span(1, 3), index.Full())
func (v View[T]) Slice(ranges ...index.Range) (View[T], error) {
	l, err := v.slice(ranges)
	if err != nil {
		return View[T]{}, fmt.Errorf("slice %v: %w", v.size, err)
	}
	return View[T]{layout: l, buf: v.buf}, nil
}

// Flat returns the rank-1 view over the same elements, if packed.
func (v View[T]) Flat() (View[T], bool) {
	l, ok := v.flat()
	if !ok {
		return View[T]{}, false
	}
	return View[T]{layout: l, buf: v.buf}, true
}

// FlatSlice returns the elements as a contiguous slice iff the view is
// packed. Strided views return ok == false.
func (v View[T]) FlatSlice() (s []T, ok bool) {
	if !v.IsPacked() {
		return nil, false
	}
	off := v.FlatOffset()
	return v.buf.Slice()[off : off+v.Len() : off+v.Len()], true
}

// StridedSlice returns the buffer from the view's first element onwards.
// Element c of the view lives at c.FlatIndex(v.Stride()) in the result,
// which is the form BLAS-style kernels take. Empty views return nil.
func (v View[T]) StridedSlice() []T {
	return stridedSlice(v.layout, v.buf)
}

// At returns the element at the given coordinates.
// Panics if the coordinates are out of bounds.
func (v View[T]) At(coords ...int) T {
	return v.buf.Slice()[v.elem(coords)]
}

// Ptr returns the address of the view's first element.
// See buffer.Buffer.Ptr for the caller's obligations.
func (v View[T]) Ptr() unsafe.Pointer {
	return elemPtr(v.buf, v.FlatOffset())
}

// String returns a human-readable description.
func (v View[T]) String() string {
	return fmt.Sprintf("View[%s](size=%v, offset=%v, stride=%v)", v.DType(), v.size, v.offset, v.stride)
}

// DType returns the runtime element type.
func (v ViewMut[T]) DType() buffer.DataType {
	return buffer.DataTypeOf[T]()
}

// AsView narrows v to a read-only view.
func (v ViewMut[T]) AsView() View[T] {
	return View[T](v)
}

// Slice narrows the view to one range per axis.
func (v ViewMut[T]) Slice(ranges ...index.Range) (ViewMut[T], error) {
	l, err := v.slice(ranges)
	if err != nil {
		return ViewMut[T]{}, fmt.Errorf("slice %v: %w", v.size, err)
	}
	return ViewMut[T]{layout: l, buf: v.buf}, nil
}

// Flat returns the rank-1 view over the same elements, if packed.
func (v ViewMut[T]) Flat() (ViewMut[T], bool) {
	l, ok := v.flat()
	if !ok {
		return ViewMut[T]{}, false
	}
	return ViewMut[T]{layout: l, buf: v.buf}, true
}

// FlatSlice returns the elements as a read-only contiguous slice iff packed.
func (v ViewMut[T]) FlatSlice() ([]T, bool) {
	return v.AsView().FlatSlice()
}

// FlatSliceMut returns the elements as a writable contiguous slice iff
// the view is packed.
func (v ViewMut[T]) FlatSliceMut() ([]T, bool) {
	return v.AsView().FlatSlice()
}

// StridedSliceMut is the writable form of View.StridedSlice.
func (v ViewMut[T]) StridedSliceMut() []T {
	return stridedSlice(v.layout, v.buf)
}

// At returns the element at the given coordinates.
func (v ViewMut[T]) At(coords ...int) T {
	return v.buf.Slice()[v.elem(coords)]
}

// Set stores value at the given coordinates.
// Panics if the coordinates are out of bounds.
func (v ViewMut[T]) Set(value T, coords ...int) {
	v.buf.Slice()[v.elem(coords)] = value
}

// Ptr returns the address of the view's first element.
func (v ViewMut[T]) Ptr() unsafe.Pointer {
	return elemPtr(v.buf, v.FlatOffset())
}

// String returns a human-readable description.
func (v ViewMut[T]) String() string {
	return fmt.Sprintf("ViewMut[%s](size=%v, offset=%v, stride=%v)", v.DType(), v.size, v.offset, v.stride)
}

func elemPtr[T buffer.Elem](buf *buffer.Buffer[T], off int) unsafe.Pointer {
	data := buf.Slice()
	if off >= len(data) {
		return nil
	}
	return unsafe.Pointer(&data[off])
}

func stridedSlice[T buffer.Elem](l layout, buf *buffer.Buffer[T]) []T {
	if l.Len() == 0 {
		return nil
	}
	return buf.Slice()[l.FlatOffset():]
}
