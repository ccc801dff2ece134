package array

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// syncCell is the shared state behind SyncArray handles.
type syncCell[T buffer.Elem] struct {
	mu   sync.RWMutex
	refs atomic.Int32
	buf  *buffer.Buffer[T]
}

func (c *syncCell[T]) drop() {
	if c.refs.Add(-1) == 0 {
		c.mu.Lock()
		defer c.mu.Unlock()
		_ = c.buf.Free()
		c.buf = nil
	}
}

// SyncArray is a reference-counted array that can be shared across
// goroutines.
//
// Any number of goroutines may hold read guards at once; a write guard is
// exclusive. Read and Write block until the conflicting guards are
// released. Give each goroutine its own handle via Clone; a single handle
// is not itself safe for concurrent use.
type SyncArray[T buffer.Elem] struct {
	layout
	cell *syncCell[T]
}

// ShareSync moves a's buffer into a new SyncArray. a is empty afterwards.
func ShareSync[T buffer.Elem](a *Array[T]) *SyncArray[T] {
	l, buf := a.take()
	c := &syncCell[T]{buf: buf}
	c.refs.Store(1)
	return &SyncArray[T]{layout: l, cell: c}
}

// Clone returns a new handle to the same buffer.
func (s *SyncArray[T]) Clone() *SyncArray[T] {
	s.mustLive()
	s.cell.refs.Add(1)
	return &SyncArray[T]{layout: s.layout, cell: s.cell}
}

// Slice returns a new handle whose layout is narrowed to the given ranges.
func (s *SyncArray[T]) Slice(ranges ...index.Range) (*SyncArray[T], error) {
	s.mustLive()
	l, err := s.slice(ranges)
	if err != nil {
		return nil, fmt.Errorf("slice %v: %w", s.size, err)
	}
	s.cell.refs.Add(1)
	return &SyncArray[T]{layout: l, cell: s.cell}, nil
}

// RefCount returns the number of live handles and guards.
func (s *SyncArray[T]) RefCount() int {
	if s.cell == nil {
		return 0
	}
	return int(s.cell.refs.Load())
}

// Read acquires a shared read guard, blocking while a writer holds the
// buffer.
func (s *SyncArray[T]) Read() *ReadGuard[T] {
	s.mustLive()
	s.cell.refs.Add(1)
	s.cell.mu.RLock()
	return s.readGuard()
}

// TryRead is the non-blocking form of Read.
func (s *SyncArray[T]) TryRead() (*ReadGuard[T], bool) {
	s.mustLive()
	if !s.cell.mu.TryRLock() {
		return nil, false
	}
	s.cell.refs.Add(1)
	return s.readGuard(), true
}

// Write acquires the exclusive write guard, blocking until every other
// guard is released.
func (s *SyncArray[T]) Write() *WriteGuard[T] {
	s.mustLive()
	s.cell.refs.Add(1)
	s.cell.mu.Lock()
	return s.writeGuard()
}

// TryWrite is the non-blocking form of Write.
func (s *SyncArray[T]) TryWrite() (*WriteGuard[T], bool) {
	s.mustLive()
	if !s.cell.mu.TryLock() {
		return nil, false
	}
	s.cell.refs.Add(1)
	return s.writeGuard(), true
}

// Release drops this handle.
func (s *SyncArray[T]) Release() error {
	if s.cell == nil {
		return ErrReleased
	}
	s.cell.drop()
	s.cell = nil
	return nil
}

func (s *SyncArray[T]) readGuard() *ReadGuard[T] {
	return &ReadGuard[T]{view: View[T]{layout: s.layout, buf: s.cell.buf}, cell: s.cell}
}

func (s *SyncArray[T]) writeGuard() *WriteGuard[T] {
	return &WriteGuard[T]{view: ViewMut[T]{layout: s.layout, buf: s.cell.buf}, cell: s.cell}
}

func (s *SyncArray[T]) mustLive() {
	if s.cell == nil {
		panic(ErrReleased)
	}
}

// ReadGuard holds a shared read lock on a SyncArray.
type ReadGuard[T buffer.Elem] struct {
	view View[T]
	cell *syncCell[T]
}

// View returns the guarded view. It must not be used after Release.
func (g *ReadGuard[T]) View() View[T] {
	return g.view
}

// Release unlocks the guard. Releasing twice is a no-op.
func (g *ReadGuard[T]) Release() {
	if g.cell == nil {
		return
	}
	c := g.cell
	g.cell = nil
	g.view = View[T]{}
	c.mu.RUnlock()
	c.drop()
}

// WriteGuard holds the exclusive write lock on a SyncArray.
type WriteGuard[T buffer.Elem] struct {
	view ViewMut[T]
	cell *syncCell[T]
}

// ViewMut returns the guarded view. It must not be used after Release.
func (g *WriteGuard[T]) ViewMut() ViewMut[T] {
	return g.view
}

// Release unlocks the guard. Releasing twice is a no-op.
func (g *WriteGuard[T]) Release() {
	if g.cell == nil {
		return
	}
	c := g.cell
	g.cell = nil
	g.view = ViewMut[T]{}
	c.mu.Unlock()
	c.drop()
}
