package array

import (
	"fmt"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// BatchArray is an owned array with a resizable outer batch axis.
//
// Storage is allocated once for maxBatchSize items. The batch size can be
// changed freely up to that capacity; doing so only updates metadata.
// Views expose the batch as one extra trailing (outermost) axis.
type BatchArray[T buffer.Elem] struct {
	layout
	batchSize    int
	maxBatchSize int
	buf          *buffer.Buffer[T]
}

// ZerosBatch allocates a zeroed batch array for items of the given size.
// The batch size starts at maxBatchSize. Panics if size has rank
// index.MaxRank (no room for the batch axis) or if either argument is
// invalid.
func ZerosBatch[T buffer.Elem](size index.Index, maxBatchSize int) *BatchArray[T] {
	if size.Rank() >= index.MaxRank {
		panic(fmt.Sprintf("zeros batch: item rank %d leaves no room for a batch axis", size.Rank()))
	}
	if maxBatchSize < 0 {
		panic(fmt.Sprintf("zeros batch: negative max batch size %d", maxBatchSize))
	}
	full := size.Append(maxBatchSize)
	if err := full.Validate(); err != nil {
		panic(fmt.Sprintf("zeros batch: %v", err))
	}
	buf := buffer.Alloc[T](full.FlatLen())
	buf.ZeroFill()
	return &BatchArray[T]{
		layout:       packedLayout(size),
		batchSize:    maxBatchSize,
		maxBatchSize: maxBatchSize,
		buf:          buf,
	}
}

// BatchSize returns the current batch size.
func (b *BatchArray[T]) BatchSize() int {
	return b.batchSize
}

// MaxBatchSize returns the batch capacity.
func (b *BatchArray[T]) MaxBatchSize() int {
	return b.maxBatchSize
}

// SetBatchSize changes the batch size without moving any data.
func (b *BatchArray[T]) SetBatchSize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative batch size %d", ErrOutOfBounds, n)
	}
	if n > b.maxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, n, b.maxBatchSize)
	}
	b.batchSize = n
	return nil
}

// Buffer returns the owned buffer.
func (b *BatchArray[T]) Buffer() *buffer.Buffer[T] {
	return b.buf
}

// View returns a read-only view with the batch axis appended.
func (b *BatchArray[T]) View() View[T] {
	return View[T]{layout: b.batchLayout(), buf: b.buf}
}

// ViewMut returns a read-write view with the batch axis appended.
func (b *BatchArray[T]) ViewMut() ViewMut[T] {
	return ViewMut[T]{layout: b.batchLayout(), buf: b.buf}
}

// Item returns a read-only view of batch item i.
func (b *BatchArray[T]) Item(i int) (View[T], error) {
	l, err := b.itemLayout(i)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{layout: l, buf: b.buf}, nil
}

// ItemMut returns a read-write view of batch item i.
func (b *BatchArray[T]) ItemMut(i int) (ViewMut[T], error) {
	l, err := b.itemLayout(i)
	if err != nil {
		return ViewMut[T]{}, err
	}
	return ViewMut[T]{layout: l, buf: b.buf}, nil
}

// Free releases the buffer.
func (b *BatchArray[T]) Free() error {
	if b.buf == nil {
		return nil
	}
	err := b.buf.Free()
	b.buf = nil
	return err
}

// batchLayout appends the batch axis with the packed stride for it: the
// step between consecutive items.
func (b *BatchArray[T]) batchLayout() layout {
	step := 1
	if r := b.size.Rank(); r > 0 {
		step = b.stride.Dim(r-1) * b.size.Dim(r-1)
	}
	return layout{
		size:   b.size.Append(b.batchSize),
		offset: b.offset.Append(0),
		stride: b.stride.Append(step),
	}
}

// itemLayout shifts the item layout to item i. Offsets are coordinates,
// so the shift is i items along the last item axis.
func (b *BatchArray[T]) itemLayout(i int) (layout, error) {
	r := b.size.Rank()
	if r == 0 {
		return layout{}, fmt.Errorf("%w: scalar items have no item view, slice View() instead", ErrRankMismatch)
	}
	if i < 0 || i >= b.batchSize {
		return layout{}, fmt.Errorf("%w: item %d of batch size %d", ErrOutOfBounds, i, b.batchSize)
	}
	return layout{
		size:   b.size,
		offset: b.offset.With(r-1, b.offset.Dim(r-1)+i*b.size.Dim(r-1)),
		stride: b.stride,
	}, nil
}
