package flatfile

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFlatFileVecRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vec.dat")
	v, err := Create[U64](path)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	want := []U64{1, 2, 3, 42, 1 << 40}
	if err := v.Extend(ctx, want); err != nil {
		t.Fatal(err)
	}
	if n := v.Len(); n != int64(len(want)) {
		t.Fatalf("Len() = %d, want %d", n, len(want))
	}
	for i, w := range want {
		got, err := v.Get(ctx, int64(i))
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != w {
			t.Errorf("Get(%d) = %d, want %d", i, got, w)
		}
	}
	got, err := v.GetRange(ctx, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range want[1:4] {
		if got[i] != w {
			t.Errorf("GetRange[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestFlatFileVecSetAndSetLen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vec.dat")
	v, err := Create[U32](path)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	if err := v.SetLen(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if n := v.Len(); n != 4 {
		t.Fatalf("Len() = %d, want 4", n)
	}
	if err := v.Set(ctx, 2, U32(99)); err != nil {
		t.Fatal(err)
	}
	got, err := v.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 99 {
		t.Errorf("Get(2) = %d, want 99", got)
	}
	if err := v.SetLen(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if n := v.Len(); n != 1 {
		t.Fatalf("Len() after truncate = %d, want 1", n)
	}
}

func TestOpenReadOnlyRejectsMutation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vec.dat")
	v, err := Create[U32](path)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Push(ctx, U32(7)); err != nil {
		t.Fatal(err)
	}
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}
	ro, err := OpenReadOnly[U32](path)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	if err := ro.Push(ctx, U32(8)); err != ErrReadOnly {
		t.Errorf("Push on read-only handle: got %v, want ErrReadOnly", err)
	}
}

func TestOpenRejectsCorruptLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.dat")
	v, err := Create[U64](path)
	if err != nil {
		t.Fatal(err)
	}
	// write a partial record's worth of bytes directly
	if err := v.f.Truncate(3); err != nil {
		t.Fatal(err)
	}
	v.Close()
	if _, err := Open[U64](path); err == nil {
		t.Fatal("Open of corrupt-length file: want error, got nil")
	}
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomic.dat")
	want := []U32{1, 2, 3}
	if err := WriteAtomic[U32](path, want); err != nil {
		t.Fatal(err)
	}
	v, err := OpenReadOnly[U32](path)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	if n := v.Len(); n != int64(len(want)) {
		t.Fatalf("Len() = %d, want %d", n, len(want))
	}
}
