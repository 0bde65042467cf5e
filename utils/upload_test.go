package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// 1x1 transparent GIF
var tinyGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func TestImageStoreSave(t *testing.T) {
	store := NewImageStore(t.TempDir())

	rel, err := store.Save(bytes.NewReader(tinyGIF))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(rel, "posts/") || !strings.HasSuffix(rel, ".gif") {
		t.Fatalf("unexpected path %q", rel)
	}
	data, err := os.ReadFile(filepath.Join(store.Root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, tinyGIF) {
		t.Fatalf("stored bytes differ")
	}

	if err := store.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(rel); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}
}

func TestImageStoreRejects(t *testing.T) {
	store := NewImageStore(t.TempDir())

	if _, err := store.Save(strings.NewReader("just some text")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("text upload: got %v, want ErrNotAnImage", err)
	}

	big := append(append([]byte{}, tinyGIF...), make([]byte, MaxImageSize)...)
	if _, err := store.Save(bytes.NewReader(big)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("large upload: got %v, want ErrImageTooLarge", err)
	}

	entries, _ := os.ReadDir(filepath.Join(store.Root, "posts"))
	if len(entries) != 0 {
		t.Fatalf("rejected uploads left %d files behind", len(entries))
	}
	if err := store.Remove("../outside"); err == nil {
		t.Fatalf("expected traversal to be refused")
	}
}
