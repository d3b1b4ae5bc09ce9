// Package batch implements the bounded-parallelism task runner workflows
// use to fan out independent units of work within a phase: a concurrency
// cap limits how many items run at once, results are returned in
// completion order, and the first task error cancels the rest
// (fail-fast), mirroring the teacher's errgroup-based parallel analysis
// fan-out.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/relaykit/conductor/internal/core"
)

// EventSink receives each event a batch or task emits, in order across
// the whole batch. A nil sink discards every event.
type EventSink func(core.Event)

// TaskCtx is the per-invocation context passed to a TaskFunc: which phase
// the batch belongs to (the same 0-based phase counter a PhaseStarted
// event carries, not a phase name), this task's 1-based position, and the
// batch size.
type TaskCtx struct {
	Phase      int
	TaskNumber int
	TotalTasks int
}

// TaskFunc is one item's unit of work.
type TaskFunc[I, O any] func(ctx context.Context, item I, tc TaskCtx) (O, error)

// ExecuteBatch runs fn once per item in items, with at most k invocations
// in flight at any instant (k must be >= 1). Results are returned in the
// order tasks complete, not the order items were submitted. On the first
// error returned by any task, g.Wait cancels the group's context so
// outstanding tasks observe ctx.Done and ExecuteBatch returns that error;
// already-completed successful results are discarded.
func ExecuteBatch[I, O any](ctx context.Context, phase int, items []I, k int, fn TaskFunc[I, O]) ([]O, error) {
	total := len(items)
	if total == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(k)

	var mu sync.Mutex
	completed := make([]O, 0, total)

	for i, item := range items {
		item := item
		tc := TaskCtx{Phase: phase, TaskNumber: i + 1, TotalTasks: total}
		g.Go(func() error {
			value, err := fn(gctx, item, tc)
			if err != nil {
				return err
			}
			mu.Lock()
			completed = append(completed, value)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return completed, nil
}

// ExecuteTask wraps one task body with its TaskStarted/TaskCompleted
// lifecycle events for a body that cannot itself fail (use ExecuteTaskErr
// when it can). body returns the task's value and a one-line summary for
// TaskCompleted's Result field.
func ExecuteTask[V any](taskID, description string, tc TaskCtx, sink EventSink, body func() (V, string)) V {
	emit := func(e core.Event) {
		if sink != nil {
			sink(e)
		}
	}

	total := tc.TotalTasks
	emit(core.NewTaskStartedEvent(tc.Phase, taskID, description, &total))

	v, summary := body()
	emit(core.NewTaskCompletedEvent(taskID, &summary))
	return v
}

// ExecuteTaskErr is the fallible counterpart of ExecuteTask: it emits
// TaskStarted before invoking body, TaskCompleted on success, TaskFailed
// on error, and propagates body's error to the caller so a batch's
// fail-fast semantics apply.
func ExecuteTaskErr[V any](taskID, description string, tc TaskCtx, sink EventSink, body func() (V, string, error)) (V, error) {
	emit := func(e core.Event) {
		if sink != nil {
			sink(e)
		}
	}

	total := tc.TotalTasks
	emit(core.NewTaskStartedEvent(tc.Phase, taskID, description, &total))

	value, summary, err := body()
	if err != nil {
		emit(core.NewTaskFailedEvent(taskID, err))
		var zero V
		return zero, err
	}
	emit(core.NewTaskCompletedEvent(taskID, &summary))
	return value, nil
}
