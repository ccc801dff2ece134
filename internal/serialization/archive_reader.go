package serialization

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// ArchiveReader gives random access to the arrays in an archive.
// It is safe for concurrent use if r is.
type ArchiveReader struct {
	r      io.ReaderAt
	size   int64
	header *ArchiveHeader
}

// NewArchiveReader parses and validates the directory of an archive of the
// given size.
func NewArchiveReader(r io.ReaderAt, size int64) (*ArchiveReader, error) {
	h, err := readArchiveHeader(r, size)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: size is a non-negative file size
	if err := ValidateEntries(h.Entries, h.DataStart(), uint64(size)); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &ArchiveReader{r: r, size: size, header: h}, nil
}

func readArchiveHeader(r io.ReaderAt, size int64) (*ArchiveHeader, error) {
	var prelude [ArchivePreludeSize]byte
	if size < ArchivePreludeSize {
		return nil, fmt.Errorf("%w: archive of %d bytes", ErrMalformedHeader, size)
	}
	if _, err := r.ReadAt(prelude[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read archive header: %w", err)
	}
	if string(prelude[:len(ArchiveMagic)]) != ArchiveMagic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, prelude[:len(ArchiveMagic)])
	}
	if major, minor := prelude[6], prelude[7]; major != ArchiveMajorVersion || minor != ArchiveMinorVersion {
		return nil, fmt.Errorf("%w: got %d.%d, expected %d.%d",
			ErrUnsupportedVersion, major, minor, ArchiveMajorVersion, ArchiveMinorVersion)
	}

	headerLen := binary.LittleEndian.Uint32(prelude[8:12])
	dataStart := uint64(ArchivePreludeSize) + uint64(headerLen)
	if dataStart%ArchiveAlignment != 0 {
		return nil, fmt.Errorf("%w: data section starts at %d", ErrMisaligned, dataStart)
	}
	//nolint:gosec // G115: size is a non-negative file size
	if headerLen < 4 || headerLen > MaxHeaderSize || dataStart > uint64(size) {
		return nil, fmt.Errorf("%w: header length %d for archive of %d bytes", ErrMalformedHeader, headerLen, size)
	}

	dir := make([]byte, headerLen)
	if _, err := r.ReadAt(dir, ArchivePreludeSize); err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}
	entries, err := parseDirectory(dir)
	if err != nil {
		return nil, err
	}
	return &ArchiveHeader{HeaderLen: headerLen, Entries: entries}, nil
}

// parseDirectory decodes the entry count and entries. Trailing bytes are
// padding.
func parseDirectory(dir []byte) ([]ArchiveEntry, error) {
	count := binary.LittleEndian.Uint32(dir[:4])
	if count > MaxEntryCount {
		return nil, &ValidationError{
			Type:    "too_many_entries",
			Details: fmt.Sprintf("got %d, max %d", count, MaxEntryCount),
		}
	}

	entries := make([]ArchiveEntry, 0, count)
	p := dir[4:]
	for i := uint32(0); i < count; i++ {
		if len(p) < 4 {
			return nil, fmt.Errorf("%w: entry %d truncated", ErrMalformedHeader, i)
		}
		keyLen := binary.LittleEndian.Uint32(p)
		p = p[4:]
		if keyLen > MaxKeyLen || uint64(len(p)) < uint64(keyLen)+16 {
			return nil, fmt.Errorf("%w: entry %d truncated or key too long (%d bytes)", ErrMalformedHeader, i, keyLen)
		}
		e := ArchiveEntry{Key: string(p[:keyLen])}
		p = p[keyLen:]
		e.Offset = binary.LittleEndian.Uint64(p)
		e.ByteLength = binary.LittleEndian.Uint64(p[8:])
		p = p[16:]
		entries = append(entries, e)
	}
	return entries, nil
}

// Directory returns the decoded directory.
func (a *ArchiveReader) Directory() *ArchiveHeader {
	return a.header
}

// Keys returns the keys in directory order.
func (a *ArchiveReader) Keys() []string {
	keys := make([]string, len(a.header.Entries))
	for i, e := range a.header.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Entry returns the directory entry for key.
func (a *ArchiveReader) Entry(key string) (ArchiveEntry, bool) {
	return a.header.Lookup(key)
}

// Header decodes the NPY header stored under key.
func (a *ArchiveReader) Header(key string) (*Header, error) {
	d, _, err := a.decoder(key)
	if err != nil {
		return nil, err
	}
	h, err := d.header()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return h, nil
}

// ReadRaw decodes the array stored under key without a static element type.
func (a *ArchiveReader) ReadRaw(key string) (*Raw, error) {
	d, n, err := a.decoder(key)
	if err != nil {
		return nil, err
	}
	raw, err := readRaw(d, n)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return raw, nil
}

// ReadArray decodes the array stored under key into a new packed array.
func ReadArray[T buffer.Elem](a *ArchiveReader, key string) (*array.Array[T], error) {
	d, n, err := a.decoder(key)
	if err != nil {
		return nil, err
	}
	arr, err := readArray[T](d, n)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return arr, nil
}

func (a *ArchiveReader) decoder(key string) (*decoder, int64, error) {
	e, ok := a.header.Lookup(key)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	//nolint:gosec // G115: bounds checked against the file size by ValidateEntries
	off, n := int64(e.Offset), int64(e.ByteLength)
	return &decoder{r: io.NewSectionReader(a.r, off, n)}, n, nil
}

// LoadConfig controls LoadAll.
type LoadConfig struct {
	Concurrency int // Maximum number of entries decoded at once; <= 0 means one per CPU.
}

// DefaultLoadConfig returns defaults based on CPU count.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{Concurrency: runtime.NumCPU()}
}

// LoadAll decodes every entry in parallel. It stops at the first error or
// when ctx is canceled.
func (a *ArchiveReader) LoadAll(ctx context.Context, cfg LoadConfig) (map[string]*Raw, error) {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	entries := a.header.Entries
	raws := make([]*Raw, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := a.ReadRaw(e.Key)
			if err != nil {
				return err
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Raw, len(entries))
	for i, e := range entries {
		out[e.Key] = raws[i]
	}
	return out, nil
}

// MappedArchive is an archive file mapped into memory.
type MappedArchive struct {
	*ArchiveReader
	mem mmap.MMap
}

// OpenArchive maps an archive file copy-on-write and parses its directory.
//
// Important: Always call Close() when done to unmap the file (use defer).
func OpenArchive(path string) (*MappedArchive, error) {
	m, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	r, err := NewArchiveReader(bytes.NewReader(m), int64(len(m)))
	if err != nil {
		_ = m.Unmap()
		return nil, err
	}
	return &MappedArchive{ArchiveReader: r, mem: m}, nil
}

// Close unmaps the file. Arrays returned by MapEntry must not be used
// afterwards; arrays from ReadArray are copies and stay valid.
func (m *MappedArchive) Close() error {
	if m.mem == nil {
		return nil
	}
	err := m.mem.Unmap()
	m.mem = nil
	m.r = closedReader{}
	return err
}

// closedReader replaces the mapping once it is gone.
type closedReader struct{}

func (closedReader) ReadAt([]byte, int64) (int, error) {
	return 0, os.ErrClosed
}

// MapEntry returns the array stored under key without copying it. The
// array aliases the mapping and is valid until the archive is closed;
// freeing it does not unmap anything.
func MapEntry[T buffer.Elem](m *MappedArchive, key string) (*array.Array[T], error) {
	if m.mem == nil {
		return nil, fmt.Errorf("map %q: %w", key, os.ErrClosed)
	}
	e, ok := m.Entry(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	size := uint64(len(m.mem))
	if e.Offset > size || e.ByteLength > size-e.Offset {
		return nil, fmt.Errorf("%w: %q lies outside the mapping", ErrMalformedHeader, key)
	}
	end := e.Offset + e.ByteLength
	a, err := mapArray[T](m.mem[e.Offset:end:end], nil)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return a, nil
}
