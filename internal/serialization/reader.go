package serialization

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// Read decodes an NPY stream into a new packed array. The file's
// descriptor must be T's native descriptor; data is never byte swapped.
func Read[T buffer.Elem](r io.Reader) (*array.Array[T], error) {
	return readArray[T](&decoder{r: r}, -1)
}

// Load reads a single-array NPY file.
func Load[T buffer.Elem](path string) (*array.Array[T], error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for array loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return readArray[T](&decoder{r: bufio.NewReader(f)}, stat.Size())
}

// readArray decodes the rest of d's stream. If avail is not negative it
// bounds the total stream size, so a truncated payload is rejected before
// anything is allocated for it.
func readArray[T buffer.Elem](d *decoder, avail int64) (*array.Array[T], error) {
	h, err := d.header()
	if err != nil {
		return nil, err
	}
	if err := checkDescr[T](h); err != nil {
		return nil, err
	}
	if err := checkAvailable(h, avail); err != nil {
		return nil, err
	}

	a := array.Zeros[T](h.Shape)
	if err := d.data(a.Buffer().Bytes()); err != nil {
		_ = a.Free()
		return nil, err
	}
	return a, nil
}

func checkDescr[T buffer.Elem](h *Header) error {
	if want := DescrOf[T](); h.Descr != want {
		return fmt.Errorf("%w: file has %s, want %s", ErrDTypeMismatch, h.Descr, want)
	}
	return nil
}

func checkAvailable(h *Header, avail int64) error {
	if avail < 0 {
		return nil
	}
	if need := int64(h.DataOffset()) + int64(h.DataSize()); need > avail {
		return fmt.Errorf("npy data: %d bytes declared, %d available: %w",
			h.DataSize(), avail-int64(h.DataOffset()), io.ErrUnexpectedEOF)
	}
	return nil
}

// Raw is an NPY payload decoded without a static element type, as found
// in archives holding arrays of several types.
type Raw struct {
	Header *Header
	Data   []byte
}

// ReadRaw decodes an NPY stream of any supported descriptor.
func ReadRaw(r io.Reader) (*Raw, error) {
	return readRaw(&decoder{r: r}, -1)
}

func readRaw(d *decoder, avail int64) (*Raw, error) {
	h, err := d.header()
	if err != nil {
		return nil, err
	}
	if err := checkAvailable(h, avail); err != nil {
		return nil, err
	}
	data := make([]byte, h.DataSize())
	if err := d.data(data); err != nil {
		return nil, err
	}
	return &Raw{Header: h, Data: data}, nil
}

// DType returns the element type of the payload.
func (r *Raw) DType() buffer.DataType {
	return r.Header.Descr.DType
}

// As copies raw into a new packed array of element type T.
func As[T buffer.Elem](raw *Raw) (*array.Array[T], error) {
	if err := checkDescr[T](raw.Header); err != nil {
		return nil, err
	}
	a := array.Zeros[T](raw.Header.Shape)
	copy(a.Buffer().Bytes(), raw.Data)
	return a, nil
}
