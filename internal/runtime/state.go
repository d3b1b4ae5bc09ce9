package runtime

import (
	"os/exec"
	"sync"
	"time"

	"github.com/relaykit/conductor/internal/core"
)

// Handle is an opaque, unique-for-the-process-lifetime identifier for one
// execution.
type Handle string

// Status is an execution's lifecycle state. Transitions are monotone:
// Running -> {Completed, Failed}; there is no transition out of a
// terminal state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Summary is the canonical shape for listing an execution and for any
// persistence extension (see PersistedExecution) that wants to store one.
type Summary struct {
	Handle     Handle
	WorkflowID string
	Name       string
	Status     Status
	StartTime  time.Time
	EndTime    *time.Time
	ExitCode   *int
}

// PersistedExecution additionally captures the launch params and the full
// event buffer, the shape an extension storing executions to disk or a
// database would serialize.
type PersistedExecution struct {
	Summary
	Params core.ParamMap
	Events []core.Event
}

// execution is the runtime-private state for one spawned workflow. All
// mutation happens on the supervisor goroutine or under Cancel; reads go
// through the registry's accessors, which take logMu for the buffer and
// the registry mutex for everything else.
type execution struct {
	handle     Handle
	workflowID string
	name       string
	binaryPath string
	params     core.ParamMap

	status    Status
	startTime time.Time
	endTime   *time.Time
	exitCode  *int

	cmd  *exec.Cmd
	bus  *broadcaster
	done chan struct{}

	logMu sync.RWMutex
	logs  []core.Event
}

func (e *execution) appendAndPublish(event core.Event) {
	e.logMu.Lock()
	e.logs = append(e.logs, event)
	e.logMu.Unlock()
	e.bus.Publish(event)
}

func (e *execution) snapshotLogs(limit int) []core.Event {
	e.logMu.RLock()
	defer e.logMu.RUnlock()
	if limit <= 0 || limit >= len(e.logs) {
		out := make([]core.Event, len(e.logs))
		copy(out, e.logs)
		return out
	}
	out := make([]core.Event, limit)
	copy(out, e.logs[:limit])
	return out
}

func (e *execution) summary() Summary {
	return Summary{
		Handle:     e.handle,
		WorkflowID: e.workflowID,
		Name:       e.name,
		Status:     e.status,
		StartTime:  e.startTime,
		EndTime:    e.endTime,
		ExitCode:   e.exitCode,
	}
}
