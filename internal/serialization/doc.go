// Package serialization reads and writes memarray arrays in the NPY
// single-array format and the NKV multi-array archive format.
//
// NPY (version 1.0) is the NumPy array file layout:
//
//	Format Structure:
//	  [6 bytes: Magic "\x93NUMPY"]
//	  [2 bytes: Version (1, 0)]
//	  [2 bytes: Header length H (uint16 LE)]
//	  [H bytes: Python dict literal, space padded, ends in '\n']
//	  [Array data: raw elements, starting at a 64-byte boundary]
//
// The header dict names the element descriptor, the storage order and the
// shape. Arrays in memory are column-major-first, so a C-order ("fortran_order":
// False) file has its shape reversed on load and the element order carried
// over unchanged.
//
// NKV (version 2.0) bundles several NPY encodings under string keys:
//
//	Format Structure:
//	  [6 bytes: Magic "\x93NUMKV"]
//	  [2 bytes: Version (2, 0)]
//	  [4 bytes: Header length (uint32 LE)]
//	  [4 bytes: Entry count (uint32 LE)]
//	  [Entries: keyLen uint32, key, offset uint64, byteLength uint64]
//	  [Zero padding up to a 16-byte boundary]
//	  [Payloads: one NPY encoding per key, each padded to 16 bytes]
//
// Entries are sorted by key and offsets are absolute file positions.
//
// Example usage:
//
//	a := array.Zeros[float32](index.New(3, 4))
//	if err := serialization.Save("weights.npy", a.View()); err != nil {
//	    log.Fatal(err)
//	}
//
//	w := serialization.NewArchiveWriter()
//	if err := serialization.Put(w, "layer0.weight", a.View()); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := w.SaveArchive("model.nkv"); err != nil {
//	    log.Fatal(err)
//	}
//
//	ar, err := serialization.OpenArchive("model.nkv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ar.Close()
//	weight, err := serialization.ReadArray[float32](ar.ArchiveReader, "layer0.weight")
package serialization
