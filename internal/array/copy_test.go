package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/memarray/internal/index"
	"github.com/born-ml/memarray/internal/parallel"
)

func TestContiguousOfStridedView(t *testing.T) {
	a := sequential(t, index.New(4, 3))
	v, err := a.View().Slice(index.Span(1, 3), index.Full())
	require.NoError(t, err)
	require.False(t, v.IsPacked())

	c := v.Contiguous()
	assert.True(t, c.IsPacked())
	assert.Equal(t, index.New(2, 3), c.Size())
	assert.Equal(t, []int32{1, 2, 5, 6, 9, 10}, c.Buffer().Slice())
	assert.True(t, Equal(v, c.View()))
}

func TestCopyFromTransposedLayout(t *testing.T) {
	src := sequential(t, index.New(3, 2))
	// View the [3, 2] column-major data as its [2, 3] transpose.
	tv, err := NewView(src.Buffer(), index.New(2, 3), index.Zero(2), index.New(3, 1))
	require.NoError(t, err)

	dst := Zeros[int32](index.New(2, 3))
	require.NoError(t, dst.ViewMut().CopyFrom(tv))
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, src.At(j, i), dst.At(i, j))
		}
	}
}

func TestCopyFromShapeMismatch(t *testing.T) {
	a := Zeros[float32](index.New(2, 2))
	b := Zeros[float32](index.New(4))
	require.ErrorIs(t, a.ViewMut().CopyFrom(b.View()), ErrShapeMismatch)
}

func TestFillStrided(t *testing.T) {
	a := Zeros[float64](index.New(3, 3))
	m, err := a.ViewMut().Slice(index.At(1), index.Full())
	require.NoError(t, err)
	m.Fill(2)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == 1 {
				want = 2
			}
			assert.Equal(t, want, a.At(i, j), "(%d, %d)", i, j)
		}
	}
}

func TestFillScalar(t *testing.T) {
	a := Zeros[uint32](index.Zero(0))
	a.ViewMut().Fill(7)
	assert.Equal(t, uint32(7), a.At())
}

func TestCopyParallelMatchesSequential(t *testing.T) {
	saved := CopyConfig
	defer func() { CopyConfig = saved }()

	a := sequential(t, index.New(7, 64, 33))
	v, err := a.View().Slice(index.Span(1, 6), index.Full(), index.Span(3, 30))
	require.NoError(t, err)

	CopyConfig = parallel.Config{Enabled: false}
	seq := v.ToSlice()

	CopyConfig = parallel.Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}
	par := v.ToSlice()

	assert.Equal(t, seq, par)
}

func BenchmarkCopyStrided(b *testing.B) {
	a := Zeros[float32](index.New(512, 512))
	v, err := a.View().Slice(index.Span(0, 256), index.Full())
	if err != nil {
		b.Fatal(err)
	}
	dst := Zeros[float32](index.New(256, 512))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dst.ViewMut().CopyFrom(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCopyPacked(b *testing.B) {
	a := Zeros[float32](index.New(512, 512))
	dst := Zeros[float32](index.New(512, 512))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dst.ViewMut().CopyFrom(a.View()); err != nil {
			b.Fatal(err)
		}
	}
}
