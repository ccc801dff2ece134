// Package main provides the memarray CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/memarray/array"
	"github.com/born-ml/memarray/serialization"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "memarray: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}
	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(out, "memarray %s\n", version)
	case "inspect":
		if len(args) != 2 {
			err = errUsage
			break
		}
		err = inspect(args[1], out)
	case "zeros":
		if len(args) < 3 {
			err = errUsage
			break
		}
		err = zeros(args[1], args[2], args[3:])
	case "pack":
		if len(args) < 2 {
			err = errUsage
			break
		}
		err = pack(args[1], args[2:], out)
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if errors.Is(err, errUsage) {
		usage(out)
	}
	return err
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "memarray - strided arrays and NPY/NKV files")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  version                            Show version")
	fmt.Fprintln(out, "  inspect <file>                     Print an .npy header or an .nkv directory")
	fmt.Fprintln(out, "  zeros <dtype> <out.npy> [dims...]  Write a zero array (dims in NumPy order)")
	fmt.Fprintln(out, "  pack <out.nkv> [key=file.npy...]   Bundle .npy files into an archive")
}

func inspect(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	magic := make([]byte, len(serialization.NpyMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	switch string(magic) {
	case serialization.NpyMagic:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		h, err := serialization.ReadHeader(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(out, "%s: npy %s, %d bytes of data at offset %d\n", path, h, h.DataSize(), h.DataOffset())
		return nil
	case serialization.ArchiveMagic:
		return inspectArchive(path, out)
	default:
		return fmt.Errorf("%s: %w", path, serialization.ErrInvalidMagic)
	}
}

func inspectArchive(path string, out io.Writer) error {
	ar, err := serialization.OpenArchive(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer ar.Close()

	dir := ar.Directory()
	fmt.Fprintf(out, "%s: nkv, %d entries, data at offset %d\n", path, len(dir.Entries), dir.DataStart())
	for _, e := range dir.Entries {
		h, err := ar.Header(e.Key)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Key, err)
		}
		fmt.Fprintf(out, "  %-24s offset=%-10d bytes=%-10d %s\n", e.Key, e.Offset, e.ByteLength, h)
	}
	return nil
}

// zeros writes a zero array. dims are given row-major, as NumPy prints
// them, and the file is written in C order.
func zeros(dtype, path string, dims []string) error {
	declared := make([]int, len(dims))
	for i, d := range dims {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid extent %q", d)
		}
		declared[i] = n
	}
	size, err := array.ShapeOf(declared)
	if err != nil {
		return err
	}
	size = size.Reverse()

	switch strings.ToLower(dtype) {
	case "float32", "f4":
		return saveZeros[float32](path, size)
	case "float64", "f8":
		return saveZeros[float64](path, size)
	case "int8", "i1":
		return saveZeros[int8](path, size)
	case "int16", "i2":
		return saveZeros[int16](path, size)
	case "int32", "i4":
		return saveZeros[int32](path, size)
	case "int64", "i8":
		return saveZeros[int64](path, size)
	case "uint8", "u1":
		return saveZeros[uint8](path, size)
	case "uint16", "u2":
		return saveZeros[uint16](path, size)
	case "uint32", "u4":
		return saveZeros[uint32](path, size)
	case "uint64", "u8":
		return saveZeros[uint64](path, size)
	default:
		return fmt.Errorf("unknown dtype %q", dtype)
	}
}

func saveZeros[T array.Elem](path string, size array.Index) error {
	a := array.Zeros[T](size)
	defer a.Free()
	return serialization.Save(path, a.View())
}

func pack(path string, args []string, out io.Writer) error {
	w := serialization.NewArchiveWriter()
	for _, arg := range args {
		key, file, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not key=file.npy", errUsage, arg)
		}
		if err := putFile(w, key, file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	h, err := w.SaveArchive(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s: %d entries\n", path, len(h.Entries))
	return nil
}

func putFile(w *serialization.ArchiveWriter, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	raw, err := serialization.ReadRaw(f)
	if err != nil {
		return err
	}

	switch raw.DType() {
	case array.Float32:
		return putRaw[float32](w, key, raw)
	case array.Float64:
		return putRaw[float64](w, key, raw)
	case array.Int8:
		return putRaw[int8](w, key, raw)
	case array.Int16:
		return putRaw[int16](w, key, raw)
	case array.Int32:
		return putRaw[int32](w, key, raw)
	case array.Int64:
		return putRaw[int64](w, key, raw)
	case array.Uint8:
		return putRaw[uint8](w, key, raw)
	case array.Uint16:
		return putRaw[uint16](w, key, raw)
	case array.Uint32:
		return putRaw[uint32](w, key, raw)
	default:
		return putRaw[uint64](w, key, raw)
	}
}

// putRaw keeps the storage order of the source file.
func putRaw[T array.Elem](w *serialization.ArchiveWriter, key string, raw *serialization.Raw) error {
	a, err := serialization.As[T](raw)
	if err != nil {
		return err
	}
	var opts []serialization.WriteOption
	if raw.Header.FortranOrder {
		opts = append(opts, serialization.WithFortranOrder())
	}
	return serialization.Put(w, key, a.View(), opts...)
}
