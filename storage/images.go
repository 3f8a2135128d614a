package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile       = errors.New("the submitted file is empty")
	ErrUnsupportedType = errors.New("upload a valid image (png, jpg, jpeg, gif or webp)")
	ErrFileTooLarge    = errors.New("the image is too large")
)

const imageDir = "trade_images"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// MediaStore keeps uploaded chart images on the local filesystem.
// Paths handed out are relative to root and use forward slashes.
type MediaStore struct {
	root      string
	urlPrefix string
	maxBytes  int64
}

func NewMediaStore(root, urlPrefix string, maxBytes int64) *MediaStore {
	return &MediaStore{
		root:      root,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}
}

// Root is the directory served under the URL prefix.
func (m *MediaStore) Root() string { return m.root }

// MaxBytes is the largest accepted image, 0 meaning unlimited.
func (m *MediaStore) MaxBytes() int64 { return m.maxBytes }

// Validate checks an upload without touching the disk.
func (m *MediaStore) Validate(fh *multipart.FileHeader) error {
	if fh.Size == 0 {
		return ErrEmptyFile
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return ErrUnsupportedType
	}
	if m.maxBytes > 0 && fh.Size > m.maxBytes {
		return fmt.Errorf("%w (max %d bytes)", ErrFileTooLarge, m.maxBytes)
	}
	return nil
}

// Save validates fh and writes it under a random name, returning the
// relative path to store on the image record.
func (m *MediaStore) Save(fh *multipart.FileHeader) (string, error) {
	if err := m.Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	rel := path.Join(imageDir, uuid.New().String()+strings.ToLower(filepath.Ext(fh.Filename)))
	dst := filepath.Join(m.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return rel, nil
}

// URL is where the image at rel is served.
func (m *MediaStore) URL(rel string) string {
	return m.urlPrefix + "/" + rel
}

// Delete removes the file at rel. A missing file is not an error.
func (m *MediaStore) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}
