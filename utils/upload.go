package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize caps uploaded post images.
const MaxImageSize = 10 << 20

var (
	ErrImageTooLarge = errors.New("image exceeds 10MB")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
)

// ImageStore saves post images below Root and hands back paths relative to it.
type ImageStore struct {
	Root string
}

// NewImageStore returns an ImageStore rooted at root.
func NewImageStore(root string) *ImageStore {
	return &ImageStore{Root: root}
}

// Save sniffs r, rejects anything that is not an image and writes it as posts/<uuid><ext>.
func (s *ImageStore) Save(r io.Reader) (string, error) {
	lr := &io.LimitedReader{R: r, N: MaxImageSize + 1}
	buf, err := io.ReadAll(lr)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(buf) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(buf)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotAnImage
	}

	dir := filepath.Join(s.Root, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(out, bytes.NewReader(buf)); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path.Join("posts", name), nil
}

// Remove deletes a previously saved image. Missing files are ignored.
func (s *ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("refusing to remove %q", rel)
	}
	err := os.Remove(filepath.Join(s.Root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
