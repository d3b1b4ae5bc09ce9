package sdk

import (
	"context"

	"github.com/relaykit/conductor/internal/agentclient"
	"github.com/relaykit/conductor/internal/agentexec"
	"github.com/relaykit/conductor/internal/batch"
)

// ExecuteBatch runs fn over items with concurrency cap k, wiring TaskCtx's
// phase to phase and routing every event through the package Log so
// workflow authors never have to pass a sink explicitly.
func ExecuteBatch[I, O any](ctx context.Context, phase int, items []I, k int, fn batch.TaskFunc[I, O]) ([]O, error) {
	return batch.ExecuteBatch(ctx, phase, items, k, fn)
}

// TaskCtx re-exports batch.TaskCtx so workflow code only needs to import
// the sdk package.
type TaskCtx = batch.TaskCtx

// ExecuteTask wraps body with TaskStarted/TaskCompleted events emitted to
// Log.
func ExecuteTask[V any](taskID, description string, tc TaskCtx, body func() (V, string)) V {
	return batch.ExecuteTask(taskID, description, tc, Log.Sink(), body)
}

// ExecuteTaskErr is the fallible counterpart of ExecuteTask.
func ExecuteTaskErr[V any](taskID, description string, tc TaskCtx, body func() (V, string, error)) (V, error) {
	return batch.ExecuteTaskErr(taskID, description, tc, Log.Sink(), body)
}

// ExecuteAgent drives one agent call to completion, emitting
// AgentStarted/AgentMessage/AgentCompleted/AgentFailed to Log.
func ExecuteAgent(ctx context.Context, client agentclient.Client, cfg agentexec.Config) (string, error) {
	return agentexec.ExecuteAgent(ctx, client, cfg, Log.Sink())
}
