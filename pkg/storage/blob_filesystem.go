package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemBlobStore stores photos on the local filesystem under
// root/sha256/ab/cdef... with a sidecar recording the content type.
type FilesystemBlobStore struct {
	root string
}

// NewFilesystemBlobStore creates the root directory if needed.
func NewFilesystemBlobStore(root string) (*FilesystemBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &FilesystemBlobStore{root: root}, nil
}

type blobMeta struct {
	ContentType string `json:"contentType"`
}

func blobKey(content []byte) string {
	hash := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(hash[:])
}

func (s *FilesystemBlobStore) pathFor(key string) (string, error) {
	digest, ok := strings.CutPrefix(key, "sha256:")
	if !ok || len(digest) != 64 {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	for _, r := range digest {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("invalid blob key %q", key)
		}
	}
	return filepath.Join(s.root, "sha256", digest[:2], digest[2:]), nil
}

func (s *FilesystemBlobStore) Put(_ context.Context, content []byte, contentType string) (string, error) {
	key := blobKey(content)
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}

	// Identical content already stored.
	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	meta, err := json.Marshal(blobMeta{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to marshal blob metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", meta, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob metadata: %w", err)
	}
	return key, nil
}

func (s *FilesystemBlobStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open blob: %w", err)
	}

	contentType := "application/octet-stream"
	if data, err := os.ReadFile(path + ".meta"); err == nil {
		var meta blobMeta
		if json.Unmarshal(data, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return f, contentType, nil
}

func (s *FilesystemBlobStore) Delete(_ context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	os.Remove(path + ".meta")
	return nil
}

func (s *FilesystemBlobStore) HealthCheck(context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("blob root unavailable: %w", err)
	}
	return nil
}
