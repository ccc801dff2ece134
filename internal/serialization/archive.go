package serialization

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// ArchiveEntry locates one payload in an archive.
type ArchiveEntry struct {
	Key        string
	Offset     uint64 // absolute file position, 16-byte aligned
	ByteLength uint64 // payload length without padding
}

// ArchiveHeader is the decoded archive directory.
type ArchiveHeader struct {
	HeaderLen uint32         // bytes after the length field up to the first payload
	Entries   []ArchiveEntry // sorted by key
}

// DataStart returns the position of the first payload.
func (h *ArchiveHeader) DataStart() uint64 {
	return ArchivePreludeSize + uint64(h.HeaderLen)
}

// Lookup finds the entry for key.
func (h *ArchiveHeader) Lookup(key string) (ArchiveEntry, bool) {
	i := sort.Search(len(h.Entries), func(i int) bool { return h.Entries[i].Key >= key })
	if i < len(h.Entries) && h.Entries[i].Key == key {
		return h.Entries[i], true
	}
	return ArchiveEntry{}, false
}

// ArchiveWriter collects encoded arrays and writes them as one archive.
type ArchiveWriter struct {
	payloads map[string][]byte
}

// NewArchiveWriter returns an empty archive writer.
func NewArchiveWriter() *ArchiveWriter {
	return &ArchiveWriter{payloads: make(map[string][]byte)}
}

// Put encodes v under key. The view must be packed. Empty, oversized and
// duplicate keys are rejected.
func Put[T buffer.Elem](w *ArchiveWriter, key string, v array.View[T], opts ...WriteOption) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, dup := w.payloads[key]; dup {
		return &ValidationError{Type: "duplicate_key", Key: key, Details: "key already added"}
	}
	if len(w.payloads) >= MaxEntryCount {
		return &ValidationError{
			Type:    "too_many_entries",
			Details: fmt.Sprintf("max %d", MaxEntryCount),
		}
	}

	var b bytes.Buffer
	if err := Write(&b, v, opts...); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	w.payloads[key] = b.Bytes()
	return nil
}

// Len returns the number of arrays added.
func (w *ArchiveWriter) Len() int {
	return len(w.payloads)
}

// Encode writes the archive and returns its directory.
func (w *ArchiveWriter) Encode(out io.Writer) (*ArchiveHeader, error) {
	keys := make([]string, 0, len(w.payloads))
	for k := range w.payloads {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// The entry count is part of the header length.
	unpadded := 4
	for _, k := range keys {
		unpadded += len(k) + archiveEntryFixed
	}
	headerLen := unpadded + padTo(ArchivePreludeSize+unpadded, ArchiveAlignment)
	if uint64(headerLen) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: directory of %d bytes", ErrMalformedHeader, headerLen)
	}

	//nolint:gosec // G115: headerLen checked above
	h := &ArchiveHeader{HeaderLen: uint32(headerLen), Entries: make([]ArchiveEntry, 0, len(keys))}
	var dir bytes.Buffer
	dir.WriteString(ArchiveMagic)
	dir.Write([]byte{ArchiveMajorVersion, ArchiveMinorVersion})
	_ = binary.Write(&dir, binary.LittleEndian, h.HeaderLen)
	_ = binary.Write(&dir, binary.LittleEndian, uint32(len(keys))) //nolint:gosec // G115: bounded by MaxEntryCount

	offset := h.DataStart()
	for _, k := range keys {
		n := uint64(len(w.payloads[k]))
		h.Entries = append(h.Entries, ArchiveEntry{Key: k, Offset: offset, ByteLength: n})
		_ = binary.Write(&dir, binary.LittleEndian, uint32(len(k))) //nolint:gosec // G115: bounded by MaxKeyLen
		dir.WriteString(k)
		_ = binary.Write(&dir, binary.LittleEndian, offset)
		_ = binary.Write(&dir, binary.LittleEndian, n)
		offset += n + uint64(padTo(int(n), ArchiveAlignment)) //nolint:gosec // G115: padding is < 16
	}
	dir.Write(make([]byte, headerLen-unpadded))

	if _, err := out.Write(dir.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write archive header: %w", err)
	}
	var zeros [ArchiveAlignment]byte
	for _, k := range keys {
		p := w.payloads[k]
		if _, err := out.Write(p); err != nil {
			return nil, fmt.Errorf("failed to write %q: %w", k, err)
		}
		if _, err := out.Write(zeros[:padTo(len(p), ArchiveAlignment)]); err != nil {
			return nil, fmt.Errorf("failed to write padding: %w", err)
		}
	}
	return h, nil
}

// SaveArchive writes the archive to a file.
func (w *ArchiveWriter) SaveArchive(path string) (h *ArchiveHeader, err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for archive saving
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if h, err = w.Encode(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush file: %w", err)
	}
	return h, nil
}
