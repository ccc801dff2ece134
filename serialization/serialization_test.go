// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package serialization_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/memarray/array"
	"github.com/born-ml/memarray/serialization"
)

// TestNpyRoundTrip verifies Save/Load keeps size, order and values for
// the element types NumPy users exchange most.
func TestNpyRoundTrip(t *testing.T) {
	dir := t.TempDir()

	f32, _ := array.FromSlice(array.Shape(2, 3), []float32{1, 2, 3, 4, 5, 6})
	if err := serialization.Save(filepath.Join(dir, "f32.npy"), f32.View()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got32, err := serialization.Load[float32](filepath.Join(dir, "f32.npy"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !array.Equal(f32.View(), got32.View()) {
		t.Errorf("float32 round trip = %v, want %v", got32.View().ToSlice(), f32.View().ToSlice())
	}

	u8, _ := array.FromSlice(array.Shape(4), []uint8{0, 1, 254, 255})
	if err := serialization.Save(filepath.Join(dir, "u8.npy"), u8.View()); err != nil {
		t.Fatal(err)
	}
	if _, err := serialization.Load[float64](filepath.Join(dir, "u8.npy")); !errors.Is(err, serialization.ErrDTypeMismatch) {
		t.Errorf("Load[float64] of uint8 data: got %v, want ErrDTypeMismatch", err)
	}
}

// TestDeclaredShape verifies an internal [3, 4] array is declared as the
// row-major shape (4, 3).
func TestDeclaredShape(t *testing.T) {
	a := array.Zeros[float32](array.Shape(3, 4))
	h := serialization.HeaderFor(a.View())
	if got := h.DeclaredShape(); !got.Equal(array.Shape(4, 3)) {
		t.Errorf("DeclaredShape() = %v, want [4 3]", got)
	}
	if h.Descr != serialization.DescrOf[float32]() {
		t.Errorf("Descr = %v, want native float32", h.Descr)
	}
}

func TestArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.nkv")
	w := serialization.NewArchiveWriter()
	for i, key := range []string{"c", "a", "b"} {
		v := array.Zeros[float64](array.Shape(i + 1))
		if err := serialization.Put(w, key, v.View()); err != nil {
			t.Fatalf("Put(%q) failed: %v", key, err)
		}
	}
	h, err := w.SaveArchive(path)
	if err != nil {
		t.Fatalf("SaveArchive failed: %v", err)
	}
	for _, e := range h.Entries {
		if e.Offset%serialization.ArchiveAlignment != 0 {
			t.Errorf("entry %q at offset %d is not 16-aligned", e.Key, e.Offset)
		}
	}

	ar, err := serialization.OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer ar.Close()

	raws, err := ar.LoadAll(context.Background(), serialization.DefaultLoadConfig())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	c, err := serialization.As[float64](raws["c"])
	if err != nil {
		t.Fatal(err)
	}
	if c.View().Len() != 1 {
		t.Errorf("len(c) = %d, want 1", c.View().Len())
	}

	b, err := serialization.MapEntry[float64](ar, "b")
	if err != nil {
		t.Fatal(err)
	}
	if !b.View().Size().Equal(array.Shape(3)) {
		t.Errorf("b.Size() = %v, want [3]", b.View().Size())
	}
}
