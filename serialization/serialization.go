// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package serialization

import (
	"io"

	"github.com/born-ml/memarray/array"
	"github.com/born-ml/memarray/internal/serialization"
)

// Format constants.
const (
	NpyMagic         = serialization.NpyMagic
	NpyAlignment     = serialization.NpyAlignment
	ArchiveMagic     = serialization.ArchiveMagic
	ArchiveAlignment = serialization.ArchiveAlignment
)

// Validation limits for archives.
const (
	MaxHeaderSize = serialization.MaxHeaderSize
	MaxEntryCount = serialization.MaxEntryCount
	MaxKeyLen     = serialization.MaxKeyLen
)

// Common errors.
var (
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
	ErrMalformedHeader    = serialization.ErrMalformedHeader
	ErrUnknownDType       = serialization.ErrUnknownDType
	ErrDTypeMismatch      = serialization.ErrDTypeMismatch
	ErrMisaligned         = serialization.ErrMisaligned
	ErrKeyNotFound        = serialization.ErrKeyNotFound
)

// ValidationError describes an invalid archive directory.
type ValidationError = serialization.ValidationError

// ByteOrder is the byte-order character of a descriptor.
type ByteOrder = serialization.ByteOrder

// Byte orders.
const (
	NoOrder      ByteOrder = serialization.NoOrder
	LittleEndian ByteOrder = serialization.LittleEndian
	BigEndian    ByteOrder = serialization.BigEndian
)

// Descr is an NPY element descriptor such as "<f4".
type Descr = serialization.Descr

// Header is a decoded NPY header.
type Header = serialization.Header

// Raw is an NPY payload whose element type is known only at run time.
type Raw = serialization.Raw

// WriteOption configures how arrays are written.
type WriteOption = serialization.WriteOption

// ArchiveEntry locates one payload in an archive.
type ArchiveEntry = serialization.ArchiveEntry

// ArchiveHeader is the decoded archive directory.
type ArchiveHeader = serialization.ArchiveHeader

// ArchiveWriter collects arrays for an archive.
type ArchiveWriter = serialization.ArchiveWriter

// ArchiveReader reads entries from an archive through an io.ReaderAt.
type ArchiveReader = serialization.ArchiveReader

// MappedArchive is an archive file mapped into memory.
type MappedArchive = serialization.MappedArchive

// LoadConfig controls ArchiveReader.LoadAll.
type LoadConfig = serialization.LoadConfig

// NativeOrder returns the byte order of the running machine.
func NativeOrder() ByteOrder {
	return serialization.NativeOrder()
}

// DescrOf returns the native descriptor for element type T.
func DescrOf[T array.Elem]() Descr {
	return serialization.DescrOf[T]()
}

// ParseDescr parses a descriptor string such as "<f8".
func ParseDescr(s string) (Descr, error) {
	return serialization.ParseDescr(s)
}

// WithFortranOrder writes the shape in memory order (fortran_order True)
// instead of reversing it.
func WithFortranOrder() WriteOption {
	return serialization.WithFortranOrder()
}

// ReadHeader decodes an NPY header, leaving r at the first data byte.
func ReadHeader(r io.Reader) (*Header, error) {
	return serialization.ReadHeader(r)
}

// WriteHeader encodes an NPY header padded to the data alignment.
func WriteHeader(w io.Writer, h *Header) error {
	return serialization.WriteHeader(w, h)
}

// HeaderFor returns the header Write would produce for v.
func HeaderFor[T array.Elem](v array.View[T], opts ...WriteOption) *Header {
	return serialization.HeaderFor(v, opts...)
}

// Read decodes one NPY array from r.
func Read[T array.Elem](r io.Reader) (*array.Array[T], error) {
	return serialization.Read[T](r)
}

// ReadRaw decodes one NPY array from r without fixing its element type.
func ReadRaw(r io.Reader) (*Raw, error) {
	return serialization.ReadRaw(r)
}

// As converts a Raw payload into a typed array.
func As[T array.Elem](raw *Raw) (*array.Array[T], error) {
	return serialization.As[T](raw)
}

// Write encodes a packed view as NPY. Strided views fail with
// array.ErrNotPacked; call Contiguous first.
func Write[T array.Elem](w io.Writer, v array.View[T], opts ...WriteOption) error {
	return serialization.Write(w, v, opts...)
}

// Load reads an NPY file.
func Load[T array.Elem](path string) (*array.Array[T], error) {
	return serialization.Load[T](path)
}

// Save writes an NPY file.
func Save[T array.Elem](path string, v array.View[T], opts ...WriteOption) error {
	return serialization.Save(path, v, opts...)
}

// Map maps an NPY file copy-on-write. The mapping is released by Free.
func Map[T array.Elem](path string) (*array.Array[T], error) {
	return serialization.Map[T](path)
}

// NewArchiveWriter returns an empty archive writer.
func NewArchiveWriter() *ArchiveWriter {
	return serialization.NewArchiveWriter()
}

// Put adds v to the archive under key. The view is encoded immediately.
func Put[T array.Elem](w *ArchiveWriter, key string, v array.View[T], opts ...WriteOption) error {
	return serialization.Put(w, key, v, opts...)
}

// NewArchiveReader parses and validates the directory of an archive of
// the given size.
func NewArchiveReader(r io.ReaderAt, size int64) (*ArchiveReader, error) {
	return serialization.NewArchiveReader(r, size)
}

// ReadArray decodes the entry stored under key into a new array.
func ReadArray[T array.Elem](a *ArchiveReader, key string) (*array.Array[T], error) {
	return serialization.ReadArray[T](a, key)
}

// DefaultLoadConfig returns the LoadAll configuration used by default.
func DefaultLoadConfig() LoadConfig {
	return serialization.DefaultLoadConfig()
}

// OpenArchive maps an archive file and validates its directory.
func OpenArchive(path string) (*MappedArchive, error) {
	return serialization.OpenArchive(path)
}

// MapEntry returns the entry under key as an array aliasing the mapping.
func MapEntry[T array.Elem](m *MappedArchive, key string) (*array.Array[T], error) {
	return serialization.MapEntry[T](m, key)
}

// ValidateKey reports whether key may be used in an archive.
func ValidateKey(key string) error {
	return serialization.ValidateKey(key)
}
