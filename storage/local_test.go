package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error: %v", err)
	}
	return s
}

func TestLocalWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	if err := s.Write(ctx, "projects/p1/deck.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, err := s.Read(ctx, "projects/p1/deck.json")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Read() = %q", data)
	}

	ok, err := s.Exists(ctx, "projects/p1/deck.json")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v", ok, err)
	}
	ok, err = s.Exists(ctx, "projects/p1/missing.json")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestLocalReadMissing(t *testing.T) {
	s := newLocal(t)
	_, err := s.Read(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLocalDelete(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	if err := s.Write(ctx, "a/b.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a/b.txt"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, "a/b.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLocalListAndDeleteTree(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)
	for _, path := range []string{"p/1/a.png", "p/1/b.png", "p/2/c.png", "q/d.png"} {
		if err := s.Write(ctx, path, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := s.List(ctx, "p")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"p/1/a.png", "p/1/b.png", "p/2/c.png"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("List() = %v, want %v", paths, want)
	}

	if err := s.DeleteTree(ctx, "p/1"); err != nil {
		t.Fatalf("DeleteTree() error: %v", err)
	}
	paths, err = s.List(ctx, "p")
	if err != nil {
		t.Fatalf("List() after delete error: %v", err)
	}
	if !reflect.DeepEqual(paths, []string{"p/2/c.png"}) {
		t.Errorf("List() after delete = %v", paths)
	}

	// Deleting a missing tree is fine, listing it yields nothing.
	if err := s.DeleteTree(ctx, "missing"); err != nil {
		t.Errorf("DeleteTree(missing) error: %v", err)
	}
	paths, err = s.List(ctx, "missing")
	if err != nil || len(paths) != 0 {
		t.Errorf("List(missing) = %v, %v", paths, err)
	}
}
