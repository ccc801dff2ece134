package serialization

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/born-ml/memarray/internal/index"
)

// Header is a decoded NPY header.
type Header struct {
	Descr        Descr
	FortranOrder bool
	Shape        index.Index // column-major-first, as the array is held in memory
	HeaderLen    int         // length of the header text; set when read from a stream
}

// DeclaredShape returns the shape as written in the file.
func (h *Header) DeclaredShape() index.Index {
	if h.FortranOrder {
		return h.Shape
	}
	return h.Shape.Reverse()
}

// DataOffset returns the position of the first data byte.
func (h *Header) DataOffset() int {
	return NpyPreludeSize + h.HeaderLen
}

// DataSize returns the number of data bytes following the header.
func (h *Header) DataSize() int {
	return h.Shape.FlatLen() * h.Descr.DType.Size()
}

// String implements fmt.Stringer.
func (h *Header) String() string {
	return fmt.Sprintf("%s %v fortran_order=%t", h.Descr, h.DeclaredShape(), h.FortranOrder)
}

// ReadHeader decodes an NPY header and leaves r positioned at the first
// data byte.
func ReadHeader(r io.Reader) (*Header, error) {
	return (&decoder{r: r}).header()
}

// WriteHeader encodes h, padding the header text with spaces and a final
// newline so the data starts on a 64-byte boundary. h.HeaderLen is ignored.
func WriteHeader(w io.Writer, h *Header) error {
	if _, err := w.Write(encodeHeader(h)); err != nil {
		return fmt.Errorf("failed to write npy header: %w", err)
	}
	return nil
}

// encodeHeader returns the prelude and padded header text.
func encodeHeader(h *Header) []byte {
	shape := h.DeclaredShape()

	var text strings.Builder
	fmt.Fprintf(&text, "{'descr': '%s', 'fortran_order': %s, 'shape': (", h.Descr, pyBool(h.FortranOrder))
	for i, d := range shape.Dims() {
		if i > 0 {
			text.WriteString(", ")
		}
		text.WriteString(strconv.Itoa(d))
	}
	if shape.Rank() == 1 {
		text.WriteByte(',')
	}
	text.WriteString("), }")
	pad := padTo(NpyPreludeSize+text.Len()+1, NpyAlignment)
	text.WriteString(strings.Repeat(" ", pad))
	text.WriteByte('\n')

	out := make([]byte, 0, NpyPreludeSize+text.Len())
	out = append(out, NpyMagic...)
	out = append(out, NpyMajorVersion, NpyMinorVersion)
	//nolint:gosec // G115: header text for rank <= 5 is far below 64 KiB
	out = binary.LittleEndian.AppendUint16(out, uint16(text.Len()))
	return append(out, text.String()...)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// decodeState tracks progress through an NPY stream.
type decodeState int

const (
	expectMagic decodeState = iota
	expectVersion
	expectHeaderLen
	expectHeaderBody
	expectData
	decodeDone
)

func (s decodeState) String() string {
	switch s {
	case expectMagic:
		return "magic"
	case expectVersion:
		return "version"
	case expectHeaderLen:
		return "header length"
	case expectHeaderBody:
		return "header"
	case expectData:
		return "data"
	case decodeDone:
		return "done"
	default:
		return "unknown"
	}
}

// decoder reads an NPY stream one section at a time.
type decoder struct {
	r     io.Reader
	state decodeState
	hlen  int
	hdr   Header
}

// header advances the decoder up to the data section.
func (d *decoder) header() (*Header, error) {
	for d.state < expectData {
		if err := d.step(); err != nil {
			return nil, fmt.Errorf("npy %s: %w", d.state, err)
		}
		d.state++
	}
	return &d.hdr, nil
}

// data reads the payload into dst, which must be DataSize bytes long.
func (d *decoder) data(dst []byte) error {
	if d.state != expectData {
		return fmt.Errorf("npy: cannot read data in state %s", d.state)
	}
	if _, err := io.ReadFull(d.r, dst); err != nil {
		if err == io.EOF && len(dst) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("npy %s: %w", d.state, err)
	}
	d.state = decodeDone
	return nil
}

func (d *decoder) step() error {
	switch d.state {
	case expectMagic:
		var magic [len(NpyMagic)]byte
		if _, err := io.ReadFull(d.r, magic[:]); err != nil {
			return err
		}
		if string(magic[:]) != NpyMagic {
			return fmt.Errorf("%w: %q", ErrInvalidMagic, magic[:])
		}
	case expectVersion:
		var v [2]byte
		if _, err := io.ReadFull(d.r, v[:]); err != nil {
			return err
		}
		if v[0] != NpyMajorVersion || v[1] != NpyMinorVersion {
			return fmt.Errorf("%w: got %d.%d, expected %d.%d",
				ErrUnsupportedVersion, v[0], v[1], NpyMajorVersion, NpyMinorVersion)
		}
	case expectHeaderLen:
		var n uint16
		if err := binary.Read(d.r, binary.LittleEndian, &n); err != nil {
			return err
		}
		if (NpyPreludeSize+int(n))%NpyAlignment != 0 {
			return fmt.Errorf("%w: data offset %d is not a multiple of %d",
				ErrMisaligned, NpyPreludeSize+int(n), NpyAlignment)
		}
		d.hlen = int(n)
	case expectHeaderBody:
		text := make([]byte, d.hlen)
		if _, err := io.ReadFull(d.r, text); err != nil {
			return err
		}
		hdr, err := parseHeaderText(string(text))
		if err != nil {
			return err
		}
		hdr.HeaderLen = d.hlen
		d.hdr = hdr
	default:
		return fmt.Errorf("no header section in state %s", d.state)
	}
	return nil
}

// parseHeaderText parses the header dict by its whitespace-separated
// tokens: {'descr': '<f4', 'fortran_order': False, 'shape': (4, 3), }
func parseHeaderText(text string) (Header, error) {
	toks := strings.Fields(text)
	if len(toks) < 6 || toks[0] != "{'descr':" || toks[2] != "'fortran_order':" || toks[4] != "'shape':" {
		return Header{}, fmt.Errorf("%w: %q", ErrMalformedHeader, strings.TrimSpace(text))
	}

	quoted := strings.TrimSuffix(toks[1], ",")
	if len(quoted) < 2 || quoted[0] != '\'' || quoted[len(quoted)-1] != '\'' {
		return Header{}, fmt.Errorf("%w: descr %s", ErrMalformedHeader, toks[1])
	}
	descr, err := ParseDescr(quoted[1 : len(quoted)-1])
	if err != nil {
		return Header{}, err
	}

	var fortran bool
	switch strings.TrimSuffix(toks[3], ",") {
	case "True":
		fortran = true
	case "False":
	default:
		return Header{}, fmt.Errorf("%w: fortran_order %s", ErrMalformedHeader, toks[3])
	}

	var dims []int
	closed := false
	strip := strings.NewReplacer("(", "", ")", "", ",", "", "}", "")
	for _, tok := range toks[5:] {
		last := strings.HasSuffix(tok, "}")
		if s := strip.Replace(tok); s != "" {
			d, err := strconv.Atoi(s)
			if err != nil || d < 0 {
				return Header{}, fmt.Errorf("%w: shape token %q", ErrMalformedHeader, tok)
			}
			dims = append(dims, d)
		}
		if last {
			closed = true
			break
		}
	}
	if !closed {
		return Header{}, fmt.Errorf("%w: unterminated dict", ErrMalformedHeader)
	}

	shape, err := index.FromSlice(dims)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if err := shape.Validate(); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if shape.FlatLen() > math.MaxInt/descr.DType.Size() {
		return Header{}, fmt.Errorf("%w: %v elements of %s overflow the byte count",
			ErrMalformedHeader, shape, descr.DType)
	}
	if !fortran {
		shape = shape.Reverse()
	}
	return Header{Descr: descr, FortranOrder: fortran, Shape: shape}, nil
}
