package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/memarray/internal/index"
)

func TestShareMovesBuffer(t *testing.T) {
	a := sequential(t, index.New(2, 3))
	r := Share(a)

	assert.Nil(t, a.Buffer())
	assert.Equal(t, index.New(2, 3), r.Size())
	assert.Equal(t, 1, r.RefCount())
}

func TestBorrowRules(t *testing.T) {
	r := Share(sequential(t, index.New(2, 2)))

	b1, err := r.Borrow()
	require.NoError(t, err)
	b2, err := r.Clone().Borrow()
	require.NoError(t, err)

	_, err = r.BorrowMut()
	require.ErrorIs(t, err, ErrBorrowConflict)

	b1.Release()
	_, err = r.BorrowMut()
	require.ErrorIs(t, err, ErrBorrowConflict, "one shared borrow is still outstanding")

	b2.Release()
	b2.Release()
	m, err := r.BorrowMut()
	require.NoError(t, err)

	_, err = r.Borrow()
	require.ErrorIs(t, err, ErrBorrowConflict)
	_, err = r.BorrowMut()
	require.ErrorIs(t, err, ErrBorrowConflict)

	m.ViewMut().Set(40, 1, 1)
	m.Release()

	b, err := r.Borrow()
	require.NoError(t, err)
	assert.Equal(t, int32(40), b.View().At(1, 1))
	b.Release()
}

func TestHandlesShareMemory(t *testing.T) {
	r := Share(sequential(t, index.New(4, 4)))
	s, err := r.Slice(index.Span(1, 3), index.At(2))
	require.NoError(t, err)
	assert.Equal(t, index.New(2, 1), s.Size())
	assert.Equal(t, 2, r.RefCount())

	m, err := s.BorrowMut()
	require.NoError(t, err)
	m.ViewMut().Set(-1, 0, 0)
	m.Release()

	b, err := r.Borrow()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), b.View().At(1, 2))
	b.Release()

	_, err = r.Slice(index.Full())
	require.ErrorIs(t, err, ErrRankMismatch)
}

func TestRcReleaseFreesAtLastReference(t *testing.T) {
	r := Share(Zeros[float32](index.New(8)))
	buf := r.cell.buf
	c := r.Clone()
	b, err := c.Borrow()
	require.NoError(t, err)
	assert.Equal(t, 3, r.RefCount())

	require.NoError(t, r.Release())
	require.ErrorIs(t, r.Release(), ErrReleased)
	assert.Equal(t, 0, r.RefCount())
	assert.Panics(t, func() { r.Clone() })
	_, err = r.Borrow()
	require.ErrorIs(t, err, ErrReleased)

	require.NoError(t, c.Release())
	assert.Equal(t, 8, buf.Len(), "an outstanding borrow keeps the buffer alive")

	b.Release()
	assert.Equal(t, 0, buf.Len())
}
