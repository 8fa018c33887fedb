// Package objectstore abstracts where uploaded documents live. The
// pipeline only ever reads bytes by reference.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads a stored object by reference.
type Store interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// FSStore keeps objects as files under a base directory. The upload handler
// writes through Put; the pipeline reads through Read.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

func (s *FSStore) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", ref, err)
	}
	return data, nil
}

func (s *FSStore) Put(ctx context.Context, ref string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write object %q: %w", ref, err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete object %q: %w", ref, err)
	}
	return nil
}

// resolve rejects references that escape the base directory.
func (s *FSStore) resolve(ref string) (string, error) {
	clean := filepath.Clean(ref)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object reference %q", ref)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	Objects map[string][]byte
}

func (m *MemStore) Read(_ context.Context, ref string) ([]byte, error) {
	data, ok := m.Objects[ref]
	if !ok {
		return nil, fmt.Errorf("object %q not found", ref)
	}
	return data, nil
}
