package array

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

func TestZerosIsPacked(t *testing.T) {
	shapes := []index.Index{
		index.Zero(0),
		index.New(5),
		index.New(3, 4),
		index.New(2, 3, 4),
		index.New(2, 1, 3, 2),
		index.New(1, 2, 1, 2, 3),
		index.New(4, 0),
	}
	for _, shape := range shapes {
		t.Run(shape.String(), func(t *testing.T) {
			a := Zeros[float32](shape)
			assert.True(t, a.IsPacked())
			assert.Equal(t, shape.FlatLen(), a.Buffer().Len())
			assert.Equal(t, 0, a.FlatOffset())
			assert.Equal(t, index.Zero(shape.Rank()), a.Offset())
			assert.Equal(t, shape.PackedStride(), a.Stride())
			for _, v := range a.Buffer().Slice() {
				assert.Zero(t, v)
			}
		})
	}
}

func TestZerosWithMmapAllocator(t *testing.T) {
	a := ZerosWith[float64](buffer.MmapAllocator{}, index.New(16, 16))
	a.Set(3.5, 15, 15)
	assert.Equal(t, 3.5, a.At(15, 15))
	require.NoError(t, a.Free())
	require.NoError(t, a.Free())
}

func TestFlatSliceOutlivesMmapArray(t *testing.T) {
	s := func() []float64 {
		a := ZerosWith[float64](buffer.MmapAllocator{}, index.New(1<<16))
		s, ok := a.View().FlatSlice()
		require.True(t, ok)
		return s
	}()
	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	s[0] = 1
	assert.Equal(t, 1.0, s[0])
}

func TestWithMemory(t *testing.T) {
	buf := buffer.Alloc[int32](12)
	a, err := WithMemory(index.New(3, 4), buf)
	require.NoError(t, err)
	assert.Same(t, buf, a.Buffer())
	assert.True(t, a.IsPacked())

	_, err = WithMemory(index.New(3, 5), buffer.Alloc[int32](12))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFromSliceAndAt(t *testing.T) {
	// Column-major: element (i, j) of a [2, 3] array lives at i + 2*j.
	a, err := FromSlice(index.New(2, 3), []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.At(1, 0))
	assert.Equal(t, 2.0, a.At(0, 1))
	assert.Equal(t, 5.0, a.At(1, 2))

	a.Set(42, 0, 2)
	assert.Equal(t, 42.0, a.Buffer().Slice()[4])

	assert.Panics(t, func() { a.At(2, 0) })
	assert.Panics(t, func() { a.At(0) })

	_, err = FromSlice(index.New(2, 2), []float64{1})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFlatView(t *testing.T) {
	a, err := FromSlice(index.New(2, 2), []uint8{1, 2, 3, 4})
	require.NoError(t, err)

	v, ok := a.FlatView()
	require.True(t, ok)
	assert.Equal(t, index.New(4), v.Size())
	s, ok := v.FlatSlice()
	require.True(t, ok)
	assert.Equal(t, []uint8{1, 2, 3, 4}, s)

	m, ok := a.FlatViewMut()
	require.True(t, ok)
	m.Set(9, 3)
	assert.Equal(t, uint8(9), a.At(1, 1))
}

func TestReshape(t *testing.T) {
	a := Zeros[float32](index.New(3, 4))
	a.Set(7, 2, 3)

	require.NoError(t, a.Reshape(index.New(2, 6)))
	assert.Equal(t, index.New(2, 6), a.Size())
	assert.True(t, a.IsPacked())
	assert.Equal(t, float32(7), a.At(1, 5), "reshape keeps the flat element order")

	require.ErrorIs(t, a.Reshape(index.New(5, 5)), ErrShapeMismatch)
	assert.Equal(t, index.New(2, 6), a.Size(), "failed reshape leaves the array unchanged")

	require.NoError(t, a.Reshape(index.New(12)))
	require.NoError(t, a.Reshape(index.New(1, 3, 1, 4)))
}

func TestStringers(t *testing.T) {
	a := Zeros[int16](index.New(2, 3))
	assert.Equal(t, "Array[int16][2 3]", a.String())
	assert.Contains(t, a.View().String(), "View[int16]")
	assert.Contains(t, a.ViewMut().String(), "ViewMut[int16]")
}
