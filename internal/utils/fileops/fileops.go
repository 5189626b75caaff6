// Package fileops provides the few filesystem operations the snapshot cache
// needs, with errors wrapped as file system errors.
package fileops

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/toyz/routewire/internal/errors"
)

// EnsureDir creates dir and its parents. It is a no-op for existing directories.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapFileSystemError("create directory", dir, err)
	}
	return nil
}

// WriteFileAtomic writes content to a uniquely named temporary file next to
// filePath and renames it into place. Readers see either the old or the new
// content; with concurrent writers the last rename wins.
func WriteFileAtomic(filePath string, content []byte, perm os.FileMode) error {
	cleanPath := filepath.Clean(filePath)
	if err := EnsureDir(filepath.Dir(cleanPath)); err != nil {
		return err
	}

	tmp := cleanPath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, content, perm); err != nil {
		return errors.WrapFileSystemError("write", tmp, err)
	}
	if err := os.Rename(tmp, cleanPath); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapFileSystemError("rename", cleanPath, err)
	}
	return nil
}

// ReadFile reads a file, wrapping failures
func ReadFile(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, errors.WrapFileSystemError("read", filePath, err)
	}
	return content, nil
}

// RemoveFile removes a file. A missing file is not an error.
func RemoveFile(filePath string) error {
	if err := os.Remove(filepath.Clean(filePath)); err != nil && !os.IsNotExist(err) {
		return errors.WrapFileSystemError("remove", filePath, err)
	}
	return nil
}

// Exists checks if a path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir checks if a path is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
