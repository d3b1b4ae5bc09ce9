//go:build windows

package config

import (
	"os"
	"path/filepath"
	"time"
)

// WriteFileAtomicRenameio is the Windows counterpart of the renameio-backed
// writer in atomic_unix.go: renameio does not support Windows, so this
// falls back to the teacher's own write-temp-then-retry-rename pattern
// (internal/adapters/state/atomic_windows.go), kept because Windows
// refuses to rename over an existing file and concurrent writers can
// transiently lock the destination.
func WriteFileAtomicRenameio(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	base := filepath.Base(path)
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tempFile := f.Name()
	defer func() { _ = os.Remove(tempFile) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tempFile, perm)

	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		if err := os.Rename(tempFile, path); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
			if err := os.Rename(tempFile, path); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}

		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}

	return lastErr
}
