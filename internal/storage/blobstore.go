// Package storage provides artifact blob storage and signed download URLs.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Bucket names mirroring the upload/output split of the hosted storage
// layout.
const (
	BucketInputVideos  = "input-videos"
	BucketOutputVideos = "output-videos"
)

// BlobStore persists job artifacts under bucket/key paths.
type BlobStore interface {
	// Save copies a local file into the store.
	Save(bucket, key, localPath string) error
	// Open returns a reader for a stored blob plus its size.
	Open(bucket, key string) (io.ReadCloser, int64, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(bucket, key string) error
}

// DiskStore is a BlobStore rooted at a local directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save copies a local file into the store.
func (s *DiskStore) Save(bucket, key, localPath string) error {
	dst, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return out.Close()
}

// Open returns a reader for a stored blob plus its size.
func (s *DiskStore) Open(bucket, key string) (io.ReadCloser, int64, error) {
	path, err := s.resolve(bucket, key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open blob: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob: %w", err)
	}
	return f, fi.Size(), nil
}

// Delete removes a blob if present.
func (s *DiskStore) Delete(bucket, key string) error {
	path, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve maps bucket/key to a path under root, rejecting traversal.
func (s *DiskStore) resolve(bucket, key string) (string, error) {
	cleaned := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	if !strings.HasPrefix(cleaned, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return cleaned, nil
}
