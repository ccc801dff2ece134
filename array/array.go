// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// Elem is the constraint for array element types.
type Elem = buffer.Elem

// DataType is the runtime element type of a buffer.
type DataType = buffer.DataType

// Data type constants.
const (
	Float32 DataType = buffer.Float32
	Float64 DataType = buffer.Float64
	Int8    DataType = buffer.Int8
	Int16   DataType = buffer.Int16
	Int32   DataType = buffer.Int32
	Int64   DataType = buffer.Int64
	Uint8   DataType = buffer.Uint8
	Uint16  DataType = buffer.Uint16
	Uint32  DataType = buffer.Uint32
	Uint64  DataType = buffer.Uint64
)

// Buffer is a flat, aligned run of elements.
type Buffer[T Elem] = buffer.Buffer[T]

// Allocator provides buffer memory.
type Allocator = buffer.Allocator

// HeapAllocator allocates from the Go heap. It is the default.
type HeapAllocator = buffer.HeapAllocator

// MmapAllocator allocates anonymous memory mappings outside the Go heap.
// Large, long-lived arrays avoid GC scanning this way.
type MmapAllocator = buffer.MmapAllocator

// AllocError is the panic value when an allocator cannot provide memory.
type AllocError = buffer.AllocError

// Array is an n-dimensional array that owns its buffer.
//
// Example:
//
//	a := array.Zeros[float64](array.Shape(2, 3))
//	a.Set(1.5, 1, 2)
//	fmt.Println(a.At(1, 2)) // 1.5
type Array[T Elem] = array.Array[T]

// View is a read-only window over a buffer.
type View[T Elem] = array.View[T]

// ViewMut is a read-write window over a buffer.
type ViewMut[T Elem] = array.ViewMut[T]

// BatchArray is an owned array with a resizable outer batch axis.
// Changing the batch size never reallocates.
type BatchArray[T Elem] = array.BatchArray[T]

// RcArray is a reference-counted array for use within one goroutine.
// Conflicting borrows fail with ErrBorrowConflict.
type RcArray[T Elem] = array.RcArray[T]

// Ref is a shared borrow of an RcArray.
type Ref[T Elem] = array.Ref[T]

// RefMut is an exclusive borrow of an RcArray.
type RefMut[T Elem] = array.RefMut[T]

// SyncArray is a reference-counted array that may be shared between
// goroutines. Readers run concurrently; writers are exclusive.
type SyncArray[T Elem] = array.SyncArray[T]

// ReadGuard holds a shared lock on a SyncArray.
type ReadGuard[T Elem] = array.ReadGuard[T]

// WriteGuard holds an exclusive lock on a SyncArray.
type WriteGuard[T Elem] = array.WriteGuard[T]

// Common errors.
var (
	ErrShapeMismatch  = array.ErrShapeMismatch
	ErrNotPacked      = array.ErrNotPacked
	ErrBatchTooLarge  = array.ErrBatchTooLarge
	ErrBorrowConflict = array.ErrBorrowConflict
	ErrReleased       = array.ErrReleased
	ErrOutOfBounds    = array.ErrOutOfBounds
	ErrRankMismatch   = array.ErrRankMismatch
)

// Zeros allocates a packed, zero-filled array.
func Zeros[T Elem](size Index) *Array[T] {
	return array.Zeros[T](size)
}

// ZerosWith allocates a packed, zero-filled array from the given allocator.
func ZerosWith[T Elem](a Allocator, size Index) *Array[T] {
	return array.ZerosWith[T](a, size)
}

// FromSlice builds a packed array holding a copy of data.
// len(data) must equal size.FlatLen().
func FromSlice[T Elem](size Index, data []T) (*Array[T], error) {
	return array.FromSlice(size, data)
}

// WithMemory builds a packed array over an existing buffer.
func WithMemory[T Elem](size Index, buf *Buffer[T]) (*Array[T], error) {
	return array.WithMemory(size, buf)
}

// NewView builds a view with an explicit layout over buf.
func NewView[T Elem](buf *Buffer[T], size, offset, stride Index) (View[T], error) {
	return array.NewView(buf, size, offset, stride)
}

// NewViewMut builds a read-write view with an explicit layout over buf.
func NewViewMut[T Elem](buf *Buffer[T], size, offset, stride Index) (ViewMut[T], error) {
	return array.NewViewMut(buf, size, offset, stride)
}

// ZerosBatch allocates a batch array holding up to maxBatchSize items of
// the given size.
func ZerosBatch[T Elem](size Index, maxBatchSize int) *BatchArray[T] {
	return array.ZerosBatch[T](size, maxBatchSize)
}

// Share moves a into a new RcArray. a must not be used afterwards.
func Share[T Elem](a *Array[T]) *RcArray[T] {
	return array.Share(a)
}

// ShareSync moves a into a new SyncArray. a must not be used afterwards.
func ShareSync[T Elem](a *Array[T]) *SyncArray[T] {
	return array.ShareSync(a)
}

// Equal reports whether two views have the same size and elements.
func Equal[T Elem](a, b View[T]) bool {
	return array.Equal(a, b)
}

// DataTypeOf returns the DataType for element type T.
func DataTypeOf[T Elem]() DataType {
	return buffer.DataTypeOf[T]()
}
