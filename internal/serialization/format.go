package serialization

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/cpu"

	"github.com/born-ml/memarray/internal/buffer"
)

// NPY format constants.
const (
	NpyMagic        = "\x93NUMPY"
	NpyMajorVersion = 1
	NpyMinorVersion = 0
	NpyPreludeSize  = 10 // magic + version + header length
	NpyAlignment    = 64 // data starts on a 64-byte boundary
)

// NKV archive format constants.
const (
	ArchiveMagic        = "\x93NUMKV"
	ArchiveMajorVersion = 2
	ArchiveMinorVersion = 0
	ArchivePreludeSize  = 12 // magic + version + header length
	ArchiveAlignment    = 16 // payloads start on a 16-byte boundary
	archiveEntryFixed   = 20 // keyLen + offset + byteLength
)

// ByteOrder is the byte-order character of an NPY descriptor.
type ByteOrder byte

// Byte orders.
const (
	NoOrder      ByteOrder = '|' // single-byte types
	LittleEndian ByteOrder = '<'
	BigEndian    ByteOrder = '>'
)

// NativeOrder returns the byte order of the running machine.
func NativeOrder() ByteOrder {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}

// Descr is an NPY element descriptor such as "<f4".
type Descr struct {
	Order ByteOrder
	DType buffer.DataType
}

// NativeDescr returns the descriptor under which dt is stored in memory.
func NativeDescr(dt buffer.DataType) Descr {
	if dt.Size() == 1 {
		return Descr{Order: NoOrder, DType: dt}
	}
	return Descr{Order: NativeOrder(), DType: dt}
}

// DescrOf returns the native descriptor for element type T.
func DescrOf[T buffer.Elem]() Descr {
	return NativeDescr(buffer.DataTypeOf[T]())
}

// IsNative reports whether data under d can be used in memory as is.
func (d Descr) IsNative() bool {
	return d == NativeDescr(d.DType)
}

// String returns the descriptor text, e.g. "<f4" or "|u1".
func (d Descr) String() string {
	return string(d.Order) + string(kindOf(d.DType)) + strconv.Itoa(d.DType.Size())
}

// ParseDescr parses descriptor text without quotes.
func ParseDescr(s string) (Descr, error) {
	if len(s) != 3 {
		return Descr{}, fmt.Errorf("%w: %q", ErrUnknownDType, s)
	}
	order := ByteOrder(s[0])
	dt, ok := descrTypes[s[1:]]
	if !ok {
		return Descr{}, fmt.Errorf("%w: %q", ErrUnknownDType, s)
	}
	switch {
	case dt.Size() == 1 && order != NoOrder,
		dt.Size() > 1 && order != LittleEndian && order != BigEndian:
		return Descr{}, fmt.Errorf("%w: %q", ErrUnknownDType, s)
	}
	return Descr{Order: order, DType: dt}, nil
}

var descrTypes = map[string]buffer.DataType{
	"f4": buffer.Float32,
	"f8": buffer.Float64,
	"i1": buffer.Int8,
	"i2": buffer.Int16,
	"i4": buffer.Int32,
	"i8": buffer.Int64,
	"u1": buffer.Uint8,
	"u2": buffer.Uint16,
	"u4": buffer.Uint32,
	"u8": buffer.Uint64,
}

func kindOf(dt buffer.DataType) byte {
	switch dt {
	case buffer.Float32, buffer.Float64:
		return 'f'
	case buffer.Int8, buffer.Int16, buffer.Int32, buffer.Int64:
		return 'i'
	default:
		return 'u'
	}
}

// padTo returns the padding needed to bring n up to a multiple of align.
func padTo(n, align int) int {
	return (align - n%align) % align
}
