package blobservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps blobs as plain files under a base directory.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) (*FSStore, error) {
	if baseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create base directory: %w", err)
	}

	return &FSStore{baseDir: baseDir}, nil
}

func (s *FSStore) Save(ctx context.Context, r io.Reader, contentType string) (string, error) {
	ref, err := newRef(contentType)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.baseDir, ref))
	if err != nil {
		return "", fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("could not write file: %w", err)
	}

	return ref, nil
}

func (s *FSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, filepath.Base(ref)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}

	return f, nil
}

func (s *FSStore) Delete(ctx context.Context, ref string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.Base(ref)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
