// Package storage writes downloaded files to local disk.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName rejects names that do not resolve to a file in the base directory.
var ErrInvalidName = errors.New("invalid file name")

// FilesystemStorage stores files on local disk under one directory.
type FilesystemStorage struct {
	basePath string // e.g. "./downloads"
}

func NewFilesystemStorage(basePath string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", basePath, err)
	}
	return &FilesystemStorage{basePath: basePath}, nil
}

// Path returns where name is stored. Directory parts of name are dropped.
func (fs *FilesystemStorage) Path(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == ".." || base == "/" || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(fs.basePath, base), nil
}

// Save writes content under name through a temporary file, so a reader
// never sees a partial file. An existing file is replaced.
func (fs *FilesystemStorage) Save(name string, content []byte) (string, error) {
	dst, err := fs.Path(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(fs.basePath, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("rename to %s: %w", dst, err)
	}
	return dst, nil
}

func (fs *FilesystemStorage) ReadFile(name string) ([]byte, error) {
	p, err := fs.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (fs *FilesystemStorage) DeleteFile(name string) error {
	p, err := fs.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
