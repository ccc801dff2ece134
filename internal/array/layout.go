package array

import (
	"fmt"

	"github.com/born-ml/memarray/internal/index"
)

// layout is the size/offset/stride triple shared by every array and view.
// Embedding it gives a type the dense-array accessors.
type layout struct {
	size   index.Index
	offset index.Index
	stride index.Index
}

func packedLayout(size index.Index) layout {
	return layout{
		size:   size,
		offset: index.Zero(size.Rank()),
		stride: size.PackedStride(),
	}
}

// Size returns the logical shape.
func (l layout) Size() index.Index {
	return l.size
}

// Offset returns the starting coordinate within the buffer.
func (l layout) Offset() index.Index {
	return l.offset
}

// Stride returns the per-axis step in elements.
func (l layout) Stride() index.Index {
	return l.stride
}

// Rank returns the number of axes.
func (l layout) Rank() int {
	return l.size.Rank()
}

// Len returns the number of logical elements.
func (l layout) Len() int {
	return l.size.FlatLen()
}

// FlatOffset returns the buffer position of the first element.
func (l layout) FlatOffset() int {
	return l.offset.FlatIndex(l.stride)
}

// IsPacked reports whether the elements are contiguous in canonical order.
func (l layout) IsPacked() bool {
	return l.size.IsPacked(l.stride)
}

// validate checks ranks, signs and that every addressable element lies
// inside a buffer of n elements.
func (l layout) validate(n int) error {
	r := l.size.Rank()
	if l.offset.Rank() != r || l.stride.Rank() != r {
		return fmt.Errorf("%w: size %v, offset %v, stride %v", ErrRankMismatch, l.size, l.offset, l.stride)
	}
	if err := l.size.Validate(); err != nil {
		return err
	}
	for axis := 0; axis < r; axis++ {
		if l.offset.Dim(axis) < 0 || l.stride.Dim(axis) < 0 {
			return fmt.Errorf("%w: negative offset or stride on axis %d", ErrOutOfBounds, axis)
		}
	}
	if l.size.FlatLen() == 0 {
		return nil
	}
	last := l.FlatOffset()
	for axis := 0; axis < r; axis++ {
		last += (l.size.Dim(axis) - 1) * l.stride.Dim(axis)
	}
	if last >= n {
		return fmt.Errorf("%w: last element at %d, buffer holds %d", ErrOutOfBounds, last, n)
	}
	return nil
}

// slice narrows the layout. Strides are unchanged so the result aliases the
// same memory.
func (l layout) slice(ranges []index.Range) (layout, error) {
	start, end, err := index.Bounds(l.size, ranges...)
	if err != nil {
		return layout{}, err
	}
	return layout{
		size:   end.Sub(start),
		offset: l.offset.Add(start),
		stride: l.stride,
	}, nil
}

// flat returns the packed rank-1 layout covering the same elements.
func (l layout) flat() (layout, bool) {
	if !l.IsPacked() {
		return layout{}, false
	}
	return layout{
		size:   index.New(l.Len()),
		offset: index.New(l.FlatOffset()),
		stride: index.New(1),
	}, true
}

// elem returns the buffer position of a logical coordinate.
// Panics if the coordinate is out of bounds.
func (l layout) elem(coords []int) int {
	if len(coords) != l.size.Rank() {
		panic(fmt.Sprintf("expected %d indices, got %d", l.size.Rank(), len(coords)))
	}
	off := l.FlatOffset()
	for axis, c := range coords {
		if c < 0 || c >= l.size.Dim(axis) {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", c, axis, l.size.Dim(axis)))
		}
		off += c * l.stride.Dim(axis)
	}
	return off
}
