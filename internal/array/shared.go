package array

import (
	"fmt"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// rcCell is the shared state behind RcArray handles.
type rcCell[T buffer.Elem] struct {
	buf    *buffer.Buffer[T]
	refs   int // live handles and guards
	borrow int // >0: shared borrows, -1: exclusive borrow
}

func (c *rcCell[T]) drop() {
	c.refs--
	if c.refs == 0 {
		_ = c.buf.Free()
		c.buf = nil
	}
}

// RcArray is a reference-counted array for use within one goroutine.
//
// Handles are cheap to clone and each carries its own layout; only the
// buffer is shared. Borrows are checked at run time: any number of
// Borrow calls may be outstanding, or a single BorrowMut, and a
// conflicting borrow fails immediately with ErrBorrowConflict. The buffer
// is freed when the last handle and guard are released.
//
// RcArray is not safe for concurrent use; see SyncArray.
type RcArray[T buffer.Elem] struct {
	layout
	cell *rcCell[T]
}

// Share moves a's buffer into a new RcArray. a is empty afterwards.
func Share[T buffer.Elem](a *Array[T]) *RcArray[T] {
	l, buf := a.take()
	return &RcArray[T]{
		layout: l,
		cell:   &rcCell[T]{buf: buf, refs: 1},
	}
}

// Clone returns a new handle to the same buffer.
func (r *RcArray[T]) Clone() *RcArray[T] {
	r.mustLive()
	r.cell.refs++
	return &RcArray[T]{layout: r.layout, cell: r.cell}
}

// Slice returns a new handle whose layout is narrowed to the given ranges.
func (r *RcArray[T]) Slice(ranges ...index.Range) (*RcArray[T], error) {
	r.mustLive()
	l, err := r.slice(ranges)
	if err != nil {
		return nil, fmt.Errorf("slice %v: %w", r.size, err)
	}
	r.cell.refs++
	return &RcArray[T]{layout: l, cell: r.cell}, nil
}

// RefCount returns the number of live handles and guards.
func (r *RcArray[T]) RefCount() int {
	if r.cell == nil {
		return 0
	}
	return r.cell.refs
}

// Borrow takes a shared borrow. It fails if an exclusive borrow is
// outstanding.
func (r *RcArray[T]) Borrow() (*Ref[T], error) {
	if r.cell == nil {
		return nil, ErrReleased
	}
	if r.cell.borrow < 0 {
		return nil, fmt.Errorf("%w: already mutably borrowed", ErrBorrowConflict)
	}
	r.cell.borrow++
	r.cell.refs++
	return &Ref[T]{view: View[T]{layout: r.layout, buf: r.cell.buf}, cell: r.cell}, nil
}

// BorrowMut takes the exclusive borrow. It fails if any borrow is
// outstanding.
func (r *RcArray[T]) BorrowMut() (*RefMut[T], error) {
	if r.cell == nil {
		return nil, ErrReleased
	}
	switch {
	case r.cell.borrow < 0:
		return nil, fmt.Errorf("%w: already mutably borrowed", ErrBorrowConflict)
	case r.cell.borrow > 0:
		return nil, fmt.Errorf("%w: %d shared borrow(s) outstanding", ErrBorrowConflict, r.cell.borrow)
	}
	r.cell.borrow = -1
	r.cell.refs++
	return &RefMut[T]{view: ViewMut[T]{layout: r.layout, buf: r.cell.buf}, cell: r.cell}, nil
}

// Release drops this handle.
func (r *RcArray[T]) Release() error {
	if r.cell == nil {
		return ErrReleased
	}
	r.cell.drop()
	r.cell = nil
	return nil
}

func (r *RcArray[T]) mustLive() {
	if r.cell == nil {
		panic(ErrReleased)
	}
}

// Ref is an outstanding shared borrow of an RcArray.
type Ref[T buffer.Elem] struct {
	view View[T]
	cell *rcCell[T]
}

// View returns the borrowed view. It must not be used after Release.
func (b *Ref[T]) View() View[T] {
	return b.view
}

// Release ends the borrow. Releasing twice is a no-op.
func (b *Ref[T]) Release() {
	if b.cell == nil {
		return
	}
	b.cell.borrow--
	b.cell.drop()
	b.cell = nil
	b.view = View[T]{}
}

// RefMut is the outstanding exclusive borrow of an RcArray.
type RefMut[T buffer.Elem] struct {
	view ViewMut[T]
	cell *rcCell[T]
}

// ViewMut returns the borrowed view. It must not be used after Release.
func (b *RefMut[T]) ViewMut() ViewMut[T] {
	return b.view
}

// Release ends the borrow. Releasing twice is a no-op.
func (b *RefMut[T]) Release() {
	if b.cell == nil {
		return
	}
	b.cell.borrow = 0
	b.cell.drop()
	b.cell = nil
	b.view = ViewMut[T]{}
}
