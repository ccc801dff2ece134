// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linalg runs BLAS kernels on array views.
//
// Matrices are rank-2 views whose rows are contiguous (stride[0] == 1);
// stride[1] is the leading dimension, so sub-views of a larger matrix are
// accepted without copying. Vectors are rank-1 views of any stride.
// Shape and layout errors panic.
//
// Example:
//
//	a := array.Zeros[float64](array.Shape(4, 3))
//	x := array.Zeros[float64](array.Shape(3))
//	y := array.Zeros[float64](array.Shape(4))
//	linalg.MatrixVectorMult(y.ViewMut(), a.View(), x.View())
package linalg

import (
	"github.com/born-ml/memarray/array"
	"github.com/born-ml/memarray/internal/linalg"
)

// Float is the set of element types with BLAS kernels.
type Float = linalg.Float

// Dot returns the inner product of x and y.
func Dot[T Float](x, y array.View[T]) T {
	return linalg.Dot(x, y)
}

// Nrm2 returns the Euclidean norm of x.
func Nrm2[T Float](x array.View[T]) T {
	return linalg.Nrm2(x)
}

// Axpy computes y += alpha*x.
func Axpy[T Float](alpha T, x array.View[T], y array.ViewMut[T]) {
	linalg.Axpy(alpha, x, y)
}

// Scal computes x *= alpha.
func Scal[T Float](alpha T, x array.ViewMut[T]) {
	linalg.Scal(alpha, x)
}

// MatrixVectorMult computes y = A·x.
func MatrixVectorMult[T Float](y array.ViewMut[T], a, x array.View[T]) {
	linalg.MatrixVectorMult(y, a, x)
}

// TransposeMatrixVectorMult computes y = Aᵀ·x.
func TransposeMatrixVectorMult[T Float](y array.ViewMut[T], a, x array.View[T]) {
	linalg.TransposeMatrixVectorMult(y, a, x)
}

// MatrixMult computes C = A·B.
func MatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	linalg.MatrixMult(c, a, b)
}

// LeftTransposeMatrixMult computes C = Aᵀ·B.
func LeftTransposeMatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	linalg.LeftTransposeMatrixMult(c, a, b)
}

// RightTransposeMatrixMult computes C = A·Bᵀ.
func RightTransposeMatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	linalg.RightTransposeMatrixMult(c, a, b)
}
