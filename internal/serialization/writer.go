package serialization

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/memarray/internal/array"
	"github.com/born-ml/memarray/internal/buffer"
)

// WriteOption configures Write and Save.
type WriteOption func(*writeConfig)

type writeConfig struct {
	fortranOrder bool
}

// WithFortranOrder writes the header with fortran_order True and the shape
// as held in memory. By default files are written in C order with the
// shape reversed, which is the same byte layout.
func WithFortranOrder() WriteOption {
	return func(c *writeConfig) {
		c.fortranOrder = true
	}
}

// HeaderFor returns the header Write emits for v.
func HeaderFor[T buffer.Elem](v array.View[T], opts ...WriteOption) *Header {
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Header{
		Descr:        DescrOf[T](),
		FortranOrder: cfg.fortranOrder,
		Shape:        v.Size(),
	}
}

// Write encodes a packed view as NPY. Strided views fail with
// array.ErrNotPacked; copy them with View.Contiguous first.
func Write[T buffer.Elem](w io.Writer, v array.View[T], opts ...WriteOption) error {
	data, ok := v.FlatSlice()
	if !ok {
		return fmt.Errorf("npy write %v: %w", v.Size(), array.ErrNotPacked)
	}
	if err := WriteHeader(w, HeaderFor(v, opts...)); err != nil {
		return err
	}
	if _, err := w.Write(buffer.AsBytes(data)); err != nil {
		return fmt.Errorf("failed to write npy data: %w", err)
	}
	return nil
}

// Save writes v to a single-array NPY file.
func Save[T buffer.Elem](path string, v array.View[T], opts ...WriteOption) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for array saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, v, opts...); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}
