package array

import (
	"fmt"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
	"github.com/born-ml/memarray/internal/parallel"
)

// CopyConfig controls how strided copies and fills are parallelized.
var CopyConfig = parallel.DefaultConfig()

// Fill sets every element of the view to value.
func (v ViewMut[T]) Fill(value T) {
	if s, ok := v.FlatSliceMut(); ok {
		parallel.ForRange(len(s), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				s[i] = value
			}
		}, CopyConfig)
		return
	}
	data := v.buf.Slice()
	step := innerStride(v.layout)
	eachRun(v.size, []int{v.FlatOffset()}, []index.Index{v.stride}, func(starts []int, n int) {
		for i, off := 0, starts[0]; i < n; i, off = i+1, off+step {
			data[off] = value
		}
	})
}

// CopyFrom copies src into v element by element. Both views must have the
// same size; they may have different strides. Overlapping source and
// destination elements give unspecified results.
func (v ViewMut[T]) CopyFrom(src View[T]) error {
	if !v.size.Equal(src.size) {
		return fmt.Errorf("%w: copy %v into %v", ErrShapeMismatch, src.size, v.size)
	}
	if d, ok := v.FlatSliceMut(); ok {
		if s, ok := src.FlatSlice(); ok {
			parallel.ForRange(len(d), func(lo, hi int) {
				copy(d[lo:hi], s[lo:hi])
			}, CopyConfig)
			return nil
		}
	}
	dst, from := v.buf.Slice(), src.buf.Slice()
	dstStep, srcStep := innerStride(v.layout), innerStride(src.layout)
	eachRun(v.size, []int{v.FlatOffset(), src.FlatOffset()}, []index.Index{v.stride, src.stride}, func(starts []int, n int) {
		d, s := starts[0], starts[1]
		for i := 0; i < n; i++ {
			dst[d] = from[s]
			d += dstStep
			s += srcStep
		}
	})
	return nil
}

// Contiguous copies the view into a new packed array of the same size.
func (v View[T]) Contiguous() *Array[T] {
	out := Zeros[T](v.size)
	if err := out.ViewMut().CopyFrom(v); err != nil {
		panic(err) // sizes are equal by construction
	}
	return out
}

// ToSlice copies the elements into a new slice in canonical order.
func (v View[T]) ToSlice() []T {
	if s, ok := v.FlatSlice(); ok {
		return append([]T(nil), s...)
	}
	return v.Contiguous().buf.Slice()
}

// Equal reports whether both views have the same size and elements.
func Equal[T buffer.Elem](a, b View[T]) bool {
	if !a.size.Equal(b.size) {
		return false
	}
	as, bs := a.ToSlice(), b.ToSlice()
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func innerStride(l layout) int {
	if l.size.Rank() == 0 {
		return 0
	}
	return l.stride.Dim(0)
}

// eachRun walks size as runs along axis 0. For every run it calls f with
// the flat start of the run under each (base, stride) pair and the run
// length. Runs are distributed across goroutines by CopyConfig.
func eachRun(size index.Index, bases []int, strides []index.Index, f func(starts []int, n int)) {
	total := size.FlatLen()
	if total == 0 {
		return
	}
	rank := size.Rank()
	if rank == 0 {
		f(bases, 1)
		return
	}
	inner := size.Dim(0)
	outer := total / inner

	cfg := CopyConfig
	cfg.MinChunkSize = max(1, cfg.MinChunkSize/inner)
	parallel.ForRange(outer, func(lo, hi int) {
		starts := make([]int, len(bases))
		for o := lo; o < hi; o++ {
			copy(starts, bases)
			rem := o
			for axis := 1; axis < rank; axis++ {
				d := size.Dim(axis)
				c := rem % d
				rem /= d
				for k := range starts {
					starts[k] += c * strides[k].Dim(axis)
				}
			}
			f(starts, inner)
		}
	}, cfg)
}
