// Package index implements the fixed-rank index algebra used for array
// shapes, offsets and strides.
//
// An Index is a small value type holding up to MaxRank extents. The packed
// (canonical) stride convention is column-major-first: axis 0 is the
// contiguous axis, so stride[0] == 1 and stride[i] == stride[i-1]*shape[i-1].
package index

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxRank is the largest supported rank.
const MaxRank = 5

// Common errors.
var (
	ErrRankTooLarge = errors.New("rank exceeds maximum")
	ErrRankMismatch = errors.New("rank mismatch")
	ErrOutOfBounds  = errors.New("index out of bounds")
	ErrInvalidShape = errors.New("invalid shape")
)

// Index is a coordinate, shape or stride of a given rank.
// The zero value is the rank-0 index (a scalar shape).
type Index struct {
	rank int
	dims [MaxRank]int
}

// New builds an Index from its components.
// Panics if more than MaxRank components are given.
func New(dims ...int) Index {
	idx, err := FromSlice(dims)
	if err != nil {
		panic(err)
	}
	return idx
}

// FromSlice builds an Index from a slice, failing if the rank is too large.
func FromSlice(dims []int) (Index, error) {
	if len(dims) > MaxRank {
		return Index{}, fmt.Errorf("%w: got %d, max %d", ErrRankTooLarge, len(dims), MaxRank)
	}
	var idx Index
	idx.rank = len(dims)
	copy(idx.dims[:], dims)
	return idx, nil
}

// Zero returns the all-zero index of the given rank.
func Zero(rank int) Index {
	if rank < 0 || rank > MaxRank {
		panic(fmt.Sprintf("index: invalid rank %d", rank))
	}
	return Index{rank: rank}
}

// Rank returns the number of components.
func (i Index) Rank() int {
	return i.rank
}

// Dim returns the component at axis.
func (i Index) Dim(axis int) int {
	if axis < 0 || axis >= i.rank {
		panic(fmt.Sprintf("index: axis %d out of range for rank %d", axis, i.rank))
	}
	return i.dims[axis]
}

// Dims returns a copy of the components.
func (i Index) Dims() []int {
	out := make([]int, i.rank)
	copy(out, i.dims[:i.rank])
	return out
}

// With returns a copy of i with axis set to v.
func (i Index) With(axis, v int) Index {
	if axis < 0 || axis >= i.rank {
		panic(fmt.Sprintf("index: axis %d out of range for rank %d", axis, i.rank))
	}
	i.dims[axis] = v
	return i
}

// Validate checks that a shape has no negative extents and that its flat
// length fits in an int.
func (i Index) Validate() error {
	n := 1
	for axis := 0; axis < i.rank; axis++ {
		d := i.dims[axis]
		if d < 0 {
			return fmt.Errorf("%w: dimension %d is %d", ErrInvalidShape, axis, d)
		}
		if d != 0 && n > math.MaxInt/d {
			return fmt.Errorf("%w: flat length of %v overflows", ErrInvalidShape, i)
		}
		n *= d
	}
	return nil
}

// FlatLen returns the number of elements described by a shape.
// A rank-0 shape has one element.
func (i Index) FlatLen() int {
	n := 1
	for axis := 0; axis < i.rank; axis++ {
		n *= i.dims[axis]
	}
	return n
}

// PackedStride returns the canonical stride for the shape.
func (i Index) PackedStride() Index {
	stride := Index{rank: i.rank}
	s := 1
	for axis := 0; axis < i.rank; axis++ {
		stride.dims[axis] = s
		s *= i.dims[axis]
	}
	return stride
}

// FlatIndex returns the linear position of coordinate i under stride.
func (i Index) FlatIndex(stride Index) int {
	i.mustMatch(stride)
	off := 0
	for axis := 0; axis < i.rank; axis++ {
		off += i.dims[axis] * stride.dims[axis]
	}
	return off
}

// IsPacked reports whether stride is the canonical stride for shape i.
func (i Index) IsPacked(stride Index) bool {
	return i.rank == stride.rank && i.PackedStride() == stride
}

// Add returns the component-wise sum.
func (i Index) Add(o Index) Index {
	i.mustMatch(o)
	for axis := 0; axis < i.rank; axis++ {
		i.dims[axis] += o.dims[axis]
	}
	return i
}

// Sub returns the component-wise difference.
func (i Index) Sub(o Index) Index {
	i.mustMatch(o)
	for axis := 0; axis < i.rank; axis++ {
		i.dims[axis] -= o.dims[axis]
	}
	return i
}

// Append returns an index of rank+1 with d as its last component.
func (i Index) Append(d int) Index {
	if i.rank == MaxRank {
		panic(fmt.Sprintf("index: cannot append to rank %d index", MaxRank))
	}
	i.dims[i.rank] = d
	i.rank++
	return i
}

// Reverse returns the components in reverse order.
func (i Index) Reverse() Index {
	out := Index{rank: i.rank}
	for axis := 0; axis < i.rank; axis++ {
		out.dims[axis] = i.dims[i.rank-1-axis]
	}
	return out
}

// Equal reports whether both indices have the same rank and components.
func (i Index) Equal(o Index) bool {
	return i == o
}

// String formats the index as [d0 d1 ...].
func (i Index) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for axis := 0; axis < i.rank; axis++ {
		if axis > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(i.dims[axis]))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (i Index) mustMatch(o Index) {
	if i.rank != o.rank {
		panic(fmt.Sprintf("index: rank mismatch %d vs %d", i.rank, o.rank))
	}
}
