// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"github.com/born-ml/memarray/internal/index"
)

// MaxRank is the largest supported rank.
const MaxRank = index.MaxRank

// Index is a shape, offset or stride of rank 0 to MaxRank.
type Index = index.Index

// Range bounds one axis when slicing a view.
type Range = index.Range

// Shape builds an Index from its extents. Panics above MaxRank.
//
// Example:
//
//	array.Shape(3, 4)  // 3 rows, 4 columns
//	array.Shape()      // scalar
func Shape(dims ...int) Index {
	return index.New(dims...)
}

// ShapeOf builds an Index from a slice, failing above MaxRank.
func ShapeOf(dims []int) (Index, error) {
	return index.FromSlice(dims)
}

// ZeroIndex returns the all-zero index of the given rank.
func ZeroIndex(rank int) Index {
	return index.Zero(rank)
}

// Full selects a whole axis (..).
func Full() Range { return index.Full() }

// Span selects [start, end) (start..end).
func Span(start, end int) Range { return index.Span(start, end) }

// Closed selects [start, end] (start..=end).
func Closed(start, end int) Range { return index.Closed(start, end) }

// From selects [start, extent) (start..).
func From(start int) Range { return index.From(start) }

// To selects [0, end) (..end).
func To(end int) Range { return index.To(end) }

// Through selects [0, end] (..=end).
func Through(end int) Range { return index.Through(end) }

// At selects the single position i (i..=i). The axis is kept with extent 1.
func At(i int) Range { return index.At(i) }
