package runtime

import (
	"encoding/json"

	"github.com/relaykit/conductor/internal/config"
	"github.com/relaykit/conductor/internal/core"
)

// BuildPersistedExecution assembles the PersistedExecution shape for
// handle: its summary plus launch params and full event buffer. It is the
// read side of the persistence extension point named in spec.md §6; the
// write side is Export.
func (r *Registry) BuildPersistedExecution(handle Handle, limit int) (PersistedExecution, error) {
	r.mu.RLock()
	e, ok := r.executions[handle]
	r.mu.RUnlock()
	if !ok {
		return PersistedExecution{}, core.ErrNotFound("execution", string(handle))
	}
	return PersistedExecution{
		Summary: e.summary(),
		Params:  e.params,
		Events:  e.snapshotLogs(limit),
	}, nil
}

// Export writes handle's PersistedExecution snapshot to path as JSON,
// atomically, via config.WriteFileAtomicRenameio so a concurrent reader
// never observes a partially written file. This is the extension point
// spec.md §6 leaves open for any database or on-disk execution store.
func (r *Registry) Export(handle Handle, path string) error {
	pe, err := r.BuildPersistedExecution(handle, 0)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(pe, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteFileAtomicRenameio(path, data, 0o600)
}
