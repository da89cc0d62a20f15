package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreTwoLevelListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080")

	put := func(key string) {
		t.Helper()
		if err := s.Put(ctx, key, strings.NewReader(key), int64(len(key)), "image/png"); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}
	put(ObjectKey("chat1", "f1", "cat.png"))
	put(ObjectKey("chat1", "f2", "notes.txt"))
	put(ObjectKey("chat2", "f3", "dog.jpg"))

	root, err := s.List(ctx, ChatPrefix("chat1"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(root.Prefixes) != 2 || len(root.Items) != 0 {
		t.Fatalf("List(chat1/) = %+v, want 2 prefixes and no items", root)
	}
	if got := FolderID(root.Prefixes[0]); got != "f1" {
		t.Errorf("FolderID() = %q, want f1", got)
	}

	folder, err := s.List(ctx, root.Prefixes[0])
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(folder.Items) != 1 || folder.Items[0].Name != "cat.png" {
		t.Fatalf("List(%s) = %+v, want cat.png", root.Prefixes[0], folder)
	}
}

func TestMemoryStoreOpenURLDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080/")
	key := ObjectKey("c", "f", "a b.png")

	if err := s.Put(ctx, key, strings.NewReader("data"), 4, "image/png"); err != nil {
		t.Fatal(err)
	}

	u, err := s.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if want := "http://localhost:8080/files/c/f/a%20b.png"; u != want {
		t.Errorf("URL() = %q, want %q", u, want)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "data" {
		t.Errorf("Open() content = %q, want data", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"a.png":  true,
		"B.JPG":  true,
		"c.jpeg": false,
		"d.gif":  false,
		"e":      false,
	}
	for name, want := range tests {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}
