//go:build windows

package persist

import (
	"os"
	"path/filepath"
)

// atomicWriteFile writes data to a file atomically. On Windows renameio is
// unavailable, so this uses write-to-temp plus rename on the same volume.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return err
	}

	return nil
}
