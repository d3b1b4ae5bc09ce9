package runtime

import (
	"context"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/discovery"
)

// Runtime is the single consumer-facing surface named by spec.md §4.8: a
// terminal UI, a conversational agent, or an RPC tool layer depends only
// on this interface, never on discovery or the registry directly.
type Runtime interface {
	ListWorkflows() []core.FullWorkflowMetadata
	GetWorkflowMetadata(id string) (core.FullWorkflowMetadata, error)
	ValidateInputs(id string, params core.ParamMap) error
	Execute(ctx context.Context, id string, params core.ParamMap) (Handle, error)
	Subscribe(handle Handle) (<-chan core.Event, error)
	GetLogs(handle Handle, limit int) ([]core.Event, error)
	Status(handle Handle) (Status, error)
	Cancel(handle Handle) error
	ListExecutions(limit, offset int, filter ExecutionFilter) []Summary
	GetParams(handle Handle) (core.ParamMap, error)
	Export(handle Handle, path string) error
}

// runtime is the in-memory implementation of Runtime: a discovery catalog
// for workflow lookup plus a Registry for spawning and supervising them.
type runtime struct {
	catalog  *discovery.Catalog
	registry *Registry
}

// New builds a Runtime backed by catalog (populated by a prior
// catalog.Refresh) and a fresh Registry configured with opts.
func New(catalog *discovery.Catalog, opts ...Option) Runtime {
	return &runtime{catalog: catalog, registry: NewRegistry(opts...)}
}

func (rt *runtime) ListWorkflows() []core.FullWorkflowMetadata {
	discovered := rt.catalog.List()
	out := make([]core.FullWorkflowMetadata, 0, len(discovered))
	for _, wf := range discovered {
		out = append(out, wf.FullWorkflowMetadata)
	}
	return out
}

func (rt *runtime) GetWorkflowMetadata(id string) (core.FullWorkflowMetadata, error) {
	wf, ok := rt.catalog.Get(id)
	if !ok {
		return core.FullWorkflowMetadata{}, core.ErrNotFound("workflow", id)
	}
	return wf.FullWorkflowMetadata, nil
}

func (rt *runtime) ValidateInputs(id string, params core.ParamMap) error {
	wf, ok := rt.catalog.Get(id)
	if !ok {
		return core.ErrNotFound("workflow", id)
	}
	return ValidateInputs(wf, params)
}

func (rt *runtime) Execute(ctx context.Context, id string, params core.ParamMap) (Handle, error) {
	wf, ok := rt.catalog.Get(id)
	if !ok {
		return "", core.ErrNotFound("workflow", id)
	}
	return rt.registry.Execute(ctx, wf, params)
}

func (rt *runtime) Subscribe(handle Handle) (<-chan core.Event, error) {
	return rt.registry.Subscribe(handle)
}

func (rt *runtime) GetLogs(handle Handle, limit int) ([]core.Event, error) {
	return rt.registry.GetLogs(handle, limit)
}

func (rt *runtime) Status(handle Handle) (Status, error) {
	return rt.registry.Status(handle)
}

func (rt *runtime) Cancel(handle Handle) error {
	return rt.registry.Cancel(handle)
}

func (rt *runtime) ListExecutions(limit, offset int, filter ExecutionFilter) []Summary {
	return rt.registry.ListExecutions(limit, offset, filter)
}

func (rt *runtime) GetParams(handle Handle) (core.ParamMap, error) {
	return rt.registry.GetParams(handle)
}

func (rt *runtime) Export(handle Handle, path string) error {
	return rt.registry.Export(handle, path)
}
