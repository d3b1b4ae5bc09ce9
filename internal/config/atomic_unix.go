//go:build !windows

package config

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFileAtomicRenameio writes data to path atomically using renameio,
// the teacher's own choice for the execution-summary export extension
// point (see DESIGN.md) where a reader must never observe a partially
// written file. This is distinct from AtomicWrite: that one is the
// teacher's hand-rolled create-temp-then-rename helper used for
// conductor's own config rewrites, kept for parity with the teacher's
// internal/config package; this one mirrors the teacher's
// internal/adapters/state split (atomic_unix.go/atomic_windows.go) for
// callers that specifically want renameio's fsync-before-rename
// guarantees on the export path.
func WriteFileAtomicRenameio(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
