package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"video-processor/internal/pkg/fileutils"
)

// LocalStorage mutates files on the local filesystem. Paths are expected to
// be absolute and already accepted by the Guard.
type LocalStorage struct{}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// Delete removes path. A missing file is not an error.
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Move renames src onto dst, creating dst's directory. Across devices it
// falls back to copy into a temp file beside dst followed by a rename.
func (l *LocalStorage) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	tmp := dst + ".tmp"
	if copyErr := fileutils.CopyFile(src, tmp); copyErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("copy across devices: %w", copyErr)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func (l *LocalStorage) EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

func (l *LocalStorage) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *LocalStorage) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
