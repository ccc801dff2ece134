// Package linalg hands array views to BLAS kernels.
//
// Matrices are rank-2 views in the column-major convention of the array
// package: axis 0 is the row index and must have stride 1, and stride[1]
// is the leading dimension. Vectors are rank-1 views of any stride.
// Shape and layout violations are programming errors and panic.
//
// The kernels are gonum's pure-Go BLAS, which takes row-major operands. A
// column-major m×n matrix with leading dimension ld is exactly a row-major
// n×m matrix with stride ld, so every operand is passed as its transpose
// and the operation is transposed to match.
package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/index"
)

// Float is the set of element types with BLAS kernels.
type Float interface {
	float32 | float64
}

type layout interface {
	Size() index.Index
	Stride() index.Index
}

// Dot returns Σ x[i]*y[i].
func Dot[T Float](x, y array.View[T]) T {
	n := vectorLen("dot", x)
	checkDim("dot", "len(y)", vectorLen("dot", y), n)
	if n == 0 {
		return 0
	}
	switch xd := any(x.StridedSlice()).(type) {
	case []float32:
		yd := any(y.StridedSlice()).([]float32)
		return T(blas32.Dot(vec32(x, xd), vec32(y, yd)))
	case []float64:
		yd := any(y.StridedSlice()).([]float64)
		return T(blas64.Dot(vec64(x, xd), vec64(y, yd)))
	}
	panic("unreachable")
}

// Nrm2 returns the Euclidean norm of x.
func Nrm2[T Float](x array.View[T]) T {
	if vectorLen("nrm2", x) == 0 {
		return 0
	}
	switch xd := any(x.StridedSlice()).(type) {
	case []float32:
		return T(blas32.Nrm2(vec32(x, xd)))
	case []float64:
		return T(blas64.Nrm2(vec64(x, xd)))
	}
	panic("unreachable")
}

// Axpy computes y += alpha*x.
func Axpy[T Float](alpha T, x array.View[T], y array.ViewMut[T]) {
	n := vectorLen("axpy", x)
	checkDim("axpy", "len(y)", vectorLen("axpy", y), n)
	if n == 0 {
		return
	}
	switch xd := any(x.StridedSlice()).(type) {
	case []float32:
		yd := any(y.StridedSliceMut()).([]float32)
		blas32.Axpy(float32(alpha), vec32(x, xd), vec32(y, yd))
	case []float64:
		yd := any(y.StridedSliceMut()).([]float64)
		blas64.Axpy(float64(alpha), vec64(x, xd), vec64(y, yd))
	}
}

// Scal computes x *= alpha.
func Scal[T Float](alpha T, x array.ViewMut[T]) {
	if vectorLen("scal", x) == 0 {
		return
	}
	switch xd := any(x.StridedSliceMut()).(type) {
	case []float32:
		blas32.Scal(float32(alpha), vec32(x, xd))
	case []float64:
		blas64.Scal(float64(alpha), vec64(x, xd))
	}
}

// MatrixVectorMult computes y = A·x for an m×n matrix A.
func MatrixVectorMult[T Float](y array.ViewMut[T], a, x array.View[T]) {
	gemv("matrix_vector_mult", false, y, a, x)
}

// TransposeMatrixVectorMult computes y = Aᵀ·x for an m×n matrix A.
func TransposeMatrixVectorMult[T Float](y array.ViewMut[T], a, x array.View[T]) {
	gemv("transpose_matrix_vector_mult", true, y, a, x)
}

func gemv[T Float](op string, trans bool, y array.ViewMut[T], a, x array.View[T]) {
	ma := matrixDims(op, a)
	rows, cols := ma.rows, ma.cols
	if trans {
		rows, cols = cols, rows
	}
	checkDim(op, "len(x)", vectorLen(op, x), cols)
	checkDim(op, "len(y)", vectorLen(op, y), rows)
	if rows == 0 {
		return
	}
	if cols == 0 {
		y.Fill(0)
		return
	}

	// A is held as Aᵀ, so y = A·x is a transposed gemv and y = Aᵀ·x is not.
	t := blas.Trans
	if trans {
		t = blas.NoTrans
	}
	switch ad := any(a.StridedSlice()).(type) {
	case []float32:
		xd := any(x.StridedSlice()).([]float32)
		yd := any(y.StridedSliceMut()).([]float32)
		blas32.Gemv(t, 1, ma.general32(ad), vec32(x, xd), 0, vec32(y, yd))
	case []float64:
		xd := any(x.StridedSlice()).([]float64)
		yd := any(y.StridedSliceMut()).([]float64)
		blas64.Gemv(t, 1, ma.general64(ad), vec64(x, xd), 0, vec64(y, yd))
	}
}

// MatrixMult computes C = A·B.
func MatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	gemm("matrix_mult", false, false, c, a, b)
}

// LeftTransposeMatrixMult computes C = Aᵀ·B.
func LeftTransposeMatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	gemm("left_transpose_matrix_mult", true, false, c, a, b)
}

// RightTransposeMatrixMult computes C = A·Bᵀ.
func RightTransposeMatrixMult[T Float](c array.ViewMut[T], a, b array.View[T]) {
	gemm("right_transpose_matrix_mult", false, true, c, a, b)
}

func gemm[T Float](op string, transA, transB bool, c array.ViewMut[T], a, b array.View[T]) {
	ma, mb, mc := matrixDims(op, a), matrixDims(op, b), matrixDims(op, c)
	m, k := ma.rows, ma.cols
	if transA {
		m, k = k, m
	}
	kb, n := mb.rows, mb.cols
	if transB {
		kb, n = n, kb
	}
	checkDim(op, "inner dimension of B", kb, k)
	checkDim(op, "rows of C", mc.rows, m)
	checkDim(op, "columns of C", mc.cols, n)
	if m == 0 || n == 0 {
		return
	}
	if k == 0 {
		c.Fill(0)
		return
	}

	// Cᵀ = op(B)ᵀ·op(A)ᵀ, with every operand already held transposed.
	tb, ta := blas.NoTrans, blas.NoTrans
	if transB {
		tb = blas.Trans
	}
	if transA {
		ta = blas.Trans
	}
	switch ad := any(a.StridedSlice()).(type) {
	case []float32:
		bd := any(b.StridedSlice()).([]float32)
		cd := any(c.StridedSliceMut()).([]float32)
		blas32.Gemm(tb, ta, 1, mb.general32(bd), ma.general32(ad), 0, mc.general32(cd))
	case []float64:
		bd := any(b.StridedSlice()).([]float64)
		cd := any(c.StridedSliceMut()).([]float64)
		blas64.Gemm(tb, ta, 1, mb.general64(bd), ma.general64(ad), 0, mc.general64(cd))
	}
}

func vectorLen(op string, v layout) int {
	if v.Size().Rank() != 1 {
		panic(fmt.Sprintf("%s: expected a vector, got size %v", op, v.Size()))
	}
	return v.Size().Dim(0)
}

func vec32(v layout, data []float32) blas32.Vector {
	n, inc := vectorStep(v)
	return blas32.Vector{N: n, Inc: inc, Data: data}
}

func vec64(v layout, data []float64) blas64.Vector {
	n, inc := vectorStep(v)
	return blas64.Vector{N: n, Inc: inc, Data: data}
}

// vectorStep returns the length and increment of a non-empty vector.
func vectorStep(v layout) (n, inc int) {
	n, inc = v.Size().Dim(0), v.Stride().Dim(0)
	if n == 1 {
		inc = 1
	}
	return n, inc
}

// matrix is the shape of a column-major operand.
type matrix struct {
	rows, cols, ld int
}

func matrixDims(op string, v layout) matrix {
	size, stride := v.Size(), v.Stride()
	if size.Rank() != 2 {
		panic(fmt.Sprintf("%s: expected a matrix, got size %v", op, size))
	}
	rows, cols := size.Dim(0), size.Dim(1)
	if stride.Dim(0) != 1 && rows > 1 {
		panic(fmt.Sprintf("%s: matrix rows must be contiguous, got stride %v", op, stride))
	}
	// The leading dimension of a single column or an empty matrix is never
	// used. Otherwise columns must not alias, which a zero stride would do
	// even for one row.
	ld := stride.Dim(1)
	if cols <= 1 || rows == 0 {
		ld = max(rows, 1)
	} else if ld < rows {
		panic(fmt.Sprintf("%s: columns of a %d-row matrix overlap, got stride %v", op, rows, stride))
	}
	return matrix{rows: rows, cols: cols, ld: ld}
}

// general32 returns the row-major transpose of the operand.
func (m matrix) general32(data []float32) blas32.General {
	return blas32.General{Rows: m.cols, Cols: m.rows, Stride: m.ld, Data: data}
}

func (m matrix) general64(data []float64) blas64.General {
	return blas64.General{Rows: m.cols, Cols: m.rows, Stride: m.ld, Data: data}
}

func checkDim(op, what string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("%s: %s is %d, want %d", op, what, got, want))
	}
}
