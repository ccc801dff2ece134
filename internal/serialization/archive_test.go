package serialization

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
	"github.com/born-ml/memarray/internal/index"
)

// testArchive holds three arrays of distinct element types and shapes.
func testArchive(t *testing.T) *ArchiveWriter {
	t.Helper()
	w := NewArchiveWriter()

	weights, err := array.FromSlice(index.New(3, 4), []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	require.NoError(t, err)
	bias, err := array.FromSlice(index.New(5), []float64{-1, -2, -3, -4, -5})
	require.NoError(t, err)
	mask, err := array.FromSlice(index.New(3), []uint8{1, 0, 1})
	require.NoError(t, err)

	require.NoError(t, Put(w, "layer0.weight", weights.View()))
	require.NoError(t, Put(w, "layer0.bias", bias.View()))
	require.NoError(t, Put(w, "mask", mask.View()))
	require.Equal(t, 3, w.Len())
	return w
}

func TestArchiveRoundTrip(t *testing.T) {
	var b bytes.Buffer
	written, err := testArchive(t).Encode(&b)
	require.NoError(t, err)
	require.Zero(t, b.Len()%ArchiveAlignment)

	r, err := NewArchiveReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	require.NoError(t, err)
	assert.Equal(t, written, r.Directory())
	assert.Equal(t, []string{"layer0.bias", "layer0.weight", "mask"}, r.Keys())

	// Payloads follow the directory back to back, each padded to 16 bytes.
	next := written.DataStart()
	assert.Zero(t, next%ArchiveAlignment)
	// Each NPY header here pads out to 128 bytes.
	lengths := map[string]uint64{
		"layer0.bias":   128 + 5*8,
		"layer0.weight": 128 + 12*4,
		"mask":          128 + 3,
	}
	for _, e := range written.Entries {
		assert.Equal(t, next, e.Offset, e.Key)
		assert.Zero(t, e.Offset%ArchiveAlignment, e.Key)
		assert.Equal(t, lengths[e.Key], e.ByteLength, e.Key)
		next = e.Offset + (e.ByteLength+15)/16*16
	}
	assert.Equal(t, uint64(b.Len()), next)

	weight, err := ReadArray[float32](r, "layer0.weight")
	require.NoError(t, err)
	assert.Equal(t, index.New(3, 4), weight.Size())
	assert.Equal(t, float32(11), weight.At(2, 3))

	bias, err := ReadArray[float64](r, "layer0.bias")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3, -4, -5}, bias.Buffer().Slice())

	h, err := r.Header("mask")
	require.NoError(t, err)
	assert.Equal(t, buffer.Uint8, h.Descr.DType)

	_, err = ReadArray[float64](r, "mask")
	require.ErrorIs(t, err, ErrDTypeMismatch)
	_, err = ReadArray[float64](r, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, ok := r.Entry("missing")
	assert.False(t, ok)
}

func TestArchiveHeaderLength(t *testing.T) {
	w := NewArchiveWriter()
	v := array.Zeros[uint8](index.New(1)).View()
	require.NoError(t, Put(w, "bb", v))
	require.NoError(t, Put(w, "a", v))

	var b bytes.Buffer
	h, err := w.Encode(&b)
	require.NoError(t, err)

	// 4 (count) + (1+20) + (2+20) = 47 unpadded; 12+47 rounds up to 64.
	assert.Equal(t, uint32(52), h.HeaderLen)
	assert.Equal(t, uint64(64), h.Entries[0].Offset)
	assert.Equal(t, "a", h.Entries[0].Key)

	raw := b.Bytes()
	assert.Equal(t, ArchiveMagic, string(raw[:6]))
	assert.Equal(t, []byte{2, 0}, raw[6:8])
	assert.Equal(t, uint32(52), binary.LittleEndian.Uint32(raw[8:12]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(raw[12:16]))
	assert.Equal(t, make([]byte, 52-47), raw[12+47:64], "directory padding is zeroed")
}

func TestEmptyArchive(t *testing.T) {
	var b bytes.Buffer
	h, err := NewArchiveWriter().Encode(&b)
	require.NoError(t, err)
	assert.Equal(t, 16, b.Len())
	assert.Empty(t, h.Entries)

	r, err := NewArchiveReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	require.NoError(t, err)
	assert.Empty(t, r.Keys())
}

func TestPutRejectsBadInput(t *testing.T) {
	w := NewArchiveWriter()
	a := array.Zeros[float32](index.New(4, 4))

	var verr *ValidationError
	require.ErrorAs(t, Put(w, "", a.View()), &verr)
	assert.Equal(t, "invalid_key", verr.Type)

	require.ErrorAs(t, Put(w, strings.Repeat("k", MaxKeyLen+1), a.View()), &verr)
	assert.Equal(t, "key_too_long", verr.Type)

	require.NoError(t, Put(w, "x", a.View()))
	require.ErrorAs(t, Put(w, "x", a.View()), &verr)
	assert.Equal(t, "duplicate_key", verr.Type)

	strided, err := a.View().Slice(index.Span(1, 3), index.Full())
	require.NoError(t, err)
	require.ErrorIs(t, Put(w, "y", strided), array.ErrNotPacked)
	require.NoError(t, Put(w, "y", strided.Contiguous().View()))
	assert.Equal(t, 2, w.Len())
}

// craftArchive encodes a directory by hand, followed by zeros up to size.
func craftArchive(entries []ArchiveEntry, size int) []byte {
	unpadded := 4
	for _, e := range entries {
		unpadded += len(e.Key) + archiveEntryFixed
	}
	headerLen := unpadded + padTo(ArchivePreludeSize+unpadded, ArchiveAlignment)

	out := []byte(ArchiveMagic)
	out = append(out, ArchiveMajorVersion, ArchiveMinorVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(headerLen))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(entries)))
	for _, e := range entries {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e.Key)))
		out = append(out, e.Key...)
		out = binary.LittleEndian.AppendUint64(out, e.Offset)
		out = binary.LittleEndian.AppendUint64(out, e.ByteLength)
	}
	return append(out, make([]byte, size-len(out))...)
}

func TestArchiveReaderValidation(t *testing.T) {
	// Two one-byte keys: the directory is 4+21+21 bytes, so data starts at 64.
	tests := []struct {
		name    string
		entries []ArchiveEntry
		size    int
		want    string
	}{
		{"unsorted", []ArchiveEntry{{"b", 64, 16}, {"a", 80, 16}}, 96, "unsorted_keys"},
		{"duplicate", []ArchiveEntry{{"a", 64, 16}, {"a", 80, 16}}, 96, "duplicate_key"},
		{"misaligned", []ArchiveEntry{{"a", 64, 16}, {"b", 88, 8}}, 96, "misaligned"},
		{"past end", []ArchiveEntry{{"a", 64, 16}, {"b", 80, 32}}, 96, "out_of_bounds"},
		{"inside directory", []ArchiveEntry{{"a", 48, 16}, {"b", 80, 16}}, 96, "out_of_bounds"},
		{"overlap", []ArchiveEntry{{"a", 80, 16}, {"b", 64, 20}}, 96, "offset_overlap"},
		{"huge length", []ArchiveEntry{{"a", 64, 1 << 63}, {"b", 80, 16}}, 96, "out_of_bounds"},
		{"wrapping offset", []ArchiveEntry{{"a", 64, 16}, {"b", math.MaxUint64 - 15, 32}}, 96, "out_of_bounds"},
		{"wrapping length", []ArchiveEntry{{"a", 64, math.MaxUint64 - 47}, {"b", 80, 16}}, 96, "out_of_bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := craftArchive(tt.entries, tt.size)
			_, err := NewArchiveReader(bytes.NewReader(raw), int64(len(raw)))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Type)
		})
	}
}

func TestArchiveReaderRejectsBadPrelude(t *testing.T) {
	// One one-byte key: the directory is 4+21 bytes, so data starts at 48.
	valid := craftArchive([]ArchiveEntry{{"a", 48, 0}}, 48)
	_, err := NewArchiveReader(bytes.NewReader(valid), int64(len(valid)))
	require.NoError(t, err)

	corrupt := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), valid...))
	}
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"npy magic", corrupt(func(b []byte) []byte { copy(b, NpyMagic); return b }), ErrInvalidMagic},
		{"version", corrupt(func(b []byte) []byte { b[6] = 1; return b }), ErrUnsupportedVersion},
		{"misaligned", corrupt(func(b []byte) []byte { b[8]++; return b }), ErrMisaligned},
		{"header past end", corrupt(func(b []byte) []byte { b[8] += 32; return b }), ErrMalformedHeader},
		{"count too large", corrupt(func(b []byte) []byte { b[12] = 9; return b }), ErrMalformedHeader},
		{"short", valid[:8], ErrMalformedHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArchiveReader(bytes.NewReader(tt.raw), int64(len(tt.raw)))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadAll(t *testing.T) {
	var b bytes.Buffer
	_, err := testArchive(t).Encode(&b)
	require.NoError(t, err)
	r, err := NewArchiveReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	require.NoError(t, err)

	raws, err := r.LoadAll(context.Background(), LoadConfig{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, raws, 3)
	assert.Equal(t, buffer.Float32, raws["layer0.weight"].DType())
	assert.Equal(t, buffer.Float64, raws["layer0.bias"].DType())
	assert.Equal(t, buffer.Uint8, raws["mask"].DType())

	mask, err := As[uint8](raws["mask"])
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 0, 1}, mask.Buffer().Slice())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.LoadAll(ctx, DefaultLoadConfig())
	require.True(t, errors.Is(err, context.Canceled), err)
}

func TestOpenArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.nkv")
	h, err := testArchive(t).SaveArchive(path)
	require.NoError(t, err)

	ar, err := OpenArchive(path)
	require.NoError(t, err)
	assert.Equal(t, h, ar.Directory())

	copied, err := ReadArray[float32](ar.ArchiveReader, "layer0.weight")
	require.NoError(t, err)

	mapped, err := MapEntry[float32](ar, "layer0.weight")
	require.NoError(t, err)
	assert.True(t, array.Equal(copied.View(), mapped.View()))
	assert.Equal(t, float32(5), mapped.At(2, 1))

	_, err = MapEntry[float32](ar, "nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = MapEntry[float32](ar, "mask")
	require.ErrorIs(t, err, ErrDTypeMismatch)

	require.NoError(t, ar.Close())
	require.NoError(t, ar.Close())
	_, err = MapEntry[float32](ar, "layer0.weight")
	require.ErrorIs(t, err, os.ErrClosed)
	_, err = ReadArray[float32](ar.ArchiveReader, "layer0.weight")
	require.ErrorIs(t, err, os.ErrClosed)

	// Copies outlive the mapping.
	assert.Equal(t, float32(11), copied.At(2, 3))
}

func TestOpenArchiveRejectsWrappingEntry(t *testing.T) {
	// Offset+ByteLength wraps to 16, which would pass a summed bounds check.
	raw := craftArchive([]ArchiveEntry{{"a", 64, 16}, {"b", math.MaxUint64 - 15, 32}}, 96)
	path := filepath.Join(t.TempDir(), "wrap.nkv")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	ar, err := OpenArchive(path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "out_of_bounds", verr.Type)
	assert.Equal(t, "b", verr.Key)
	assert.Nil(t, ar)
}
