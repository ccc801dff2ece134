// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides strided n-dimensional arrays over flat buffers.
//
// # Overview
//
// An array is a buffer plus a layout: a shape, a per-axis offset and a
// per-axis stride, all of the same rank (0 to 5). The canonical packed
// layout is column-major-first, so axis 0 is contiguous:
//
//	shape  [3, 4]
//	stride [1, 3]
//
// The package provides:
//   - Array[T]: owns its buffer
//   - View[T], ViewMut[T]: zero-copy windows produced by Slice
//   - BatchArray[T]: an owned array with a resizable outer batch axis
//   - RcArray[T]: shared ownership with checked borrows, one goroutine
//   - SyncArray[T]: shared ownership with reader/writer locking
//
// # Basic Usage
//
//	a := array.Zeros[float32](array.Shape(3, 4))
//	v := a.ViewMut()
//
//	// Rows 1..3 of columns 0..2; the result aliases a.
//	sub, err := v.Slice(array.Span(1, 3), array.Closed(0, 2))
//	if err != nil {
//	    return err
//	}
//	sub.Fill(1)
//
//	// Packed views expose their elements as a Go slice.
//	if s, ok := a.View().FlatSlice(); ok {
//	    fmt.Println(len(s)) // 12
//	}
//
// # Aliasing
//
// Views alias their buffer the way Go slices alias their backing array.
// A ViewMut must not be used while another view of the same elements is
// being written. RcArray and SyncArray enforce this at run time.
//
// # Element Types
//
// float32, float64, int8, int16, int32, int64, uint8, uint16, uint32 and
// uint64 (the Elem constraint).
package array
