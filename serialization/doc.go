// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization saves and loads arrays as NPY files and NKV
// archives.
//
// # NPY
//
// NPY version 1.0 is NumPy's single-array format. Files written here load
// with numpy.load and vice versa, for the element types memarray supports:
//
//	a := array.Zeros[float32](array.Shape(3, 4))
//	if err := serialization.Save("a.npy", a.View()); err != nil {
//	    return err
//	}
//	b, err := serialization.Load[float32]("a.npy")
//
// Arrays are column-major-first in memory, so a C-order file declaring
// shape (4, 3) loads as an array of size [3, 4] with the same element
// order. Use WithFortranOrder to write the shape unreversed.
//
// Descriptors must match the requested element type in the machine's
// native byte order. Nothing is converted or byte swapped.
//
// # NKV Archives
//
// An archive stores several NPY encodings under sorted string keys:
//
//	w := serialization.NewArchiveWriter()
//	_ = serialization.Put(w, "layer0.weight", weight.View())
//	_ = serialization.Put(w, "layer0.bias", bias.View())
//	if _, err := w.SaveArchive("model.nkv"); err != nil {
//	    return err
//	}
//
//	ar, err := serialization.OpenArchive("model.nkv")
//	if err != nil {
//	    return err
//	}
//	defer ar.Close()
//	weight, err := serialization.MapEntry[float32](ar, "layer0.weight")
//
// MapEntry aliases the file mapping and is valid until Close. ReadArray
// copies. LoadAll decodes every entry in parallel.
package serialization
