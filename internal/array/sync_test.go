package array

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/memarray/internal/index"
)

func TestConcurrentReaders(t *testing.T) {
	s := ShareSync(sequential(t, index.New(16, 16)))
	defer func() { require.NoError(t, s.Release()) }()

	const readers = 8
	var (
		wg    sync.WaitGroup
		ready sync.WaitGroup
		start = make(chan struct{})
		sums  = make([]int64, readers)
	)
	ready.Add(readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		h := s.Clone()
		go func(i int) {
			defer wg.Done()
			defer func() { _ = h.Release() }()
			g := h.Read()
			defer g.Release()
			ready.Done()
			<-start
			for _, x := range g.View().ToSlice() {
				sums[i] += int64(x)
			}
		}(i)
	}

	// Every reader holds its guard at the same time.
	ready.Wait()
	_, ok := s.TryWrite()
	assert.False(t, ok)
	close(start)
	wg.Wait()

	for _, sum := range sums {
		assert.Equal(t, int64(255*256/2), sum)
	}
}

func TestWriterWaitsForReaders(t *testing.T) {
	s := ShareSync(Zeros[float64](index.New(4)))
	r := s.Read()

	done := make(chan struct{})
	w := s.Clone()
	go func() {
		g := w.Write()
		g.ViewMut().Fill(1)
		g.Release()
		_ = w.Release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("writer acquired the lock while a reader was active")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0.0, r.View().At(0))
	r.Release()

	<-done
	g, ok := s.TryRead()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1, 1, 1}, g.View().ToSlice())
	g.Release()
	require.NoError(t, s.Release())
}

func TestTryLockConflicts(t *testing.T) {
	s := ShareSync(Zeros[int8](index.New(2)))
	w, ok := s.TryWrite()
	require.True(t, ok)

	_, ok = s.TryRead()
	assert.False(t, ok)
	_, ok = s.TryWrite()
	assert.False(t, ok)

	w.Release()
	w.Release()
	r, ok := s.TryRead()
	require.True(t, ok)
	r.Release()
	require.NoError(t, s.Release())
}

func TestSyncReleaseFreesAtLastReference(t *testing.T) {
	s := ShareSync(Zeros[uint16](index.New(3, 3)))
	buf := s.cell.buf
	sub, err := s.Slice(index.At(0), index.Full())
	require.NoError(t, err)
	assert.Equal(t, index.New(1, 3), sub.Size())
	assert.Equal(t, 2, s.RefCount())

	g := sub.Read()
	require.NoError(t, sub.Release())
	require.NoError(t, s.Release())
	require.ErrorIs(t, s.Release(), ErrReleased)
	assert.Equal(t, 9, buf.Len(), "the read guard keeps the buffer alive")

	g.Release()
	assert.Equal(t, 0, buf.Len())
}
