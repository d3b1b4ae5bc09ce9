// Package runtime implements the execution registry and runtime facade:
// spawning a discovered workflow as a child process, parsing the
// sentinel-prefixed event protocol off its stderr, fanning events out to
// concurrent subscribers through a bounded lag-drop broadcaster, and
// tracking each execution's Running/Completed/Failed lifecycle.
package runtime

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/discovery"
	"github.com/relaykit/conductor/internal/logging"
	"github.com/relaykit/conductor/internal/wfproto"
)

// DefaultBroadcastCapacity is the recommended per-execution broadcast
// buffer size named in the spec: generous enough that a normally-paced
// subscriber never lags, while bounding memory for a runaway workflow.
const DefaultBroadcastCapacity = 1000

// Registry spawns workflow children, supervises their event streams, and
// holds every execution's state for the lifetime of the process. The
// registry never forgets a completed execution on its own — see
// DESIGN.md's Open Question on eviction — callers needing bounded memory
// call Forget explicitly.
type Registry struct {
	mu         sync.RWMutex
	executions map[Handle]*execution

	broadcastCapacity int
	logger            *logging.Logger
	newHandle         func() Handle
}

// Option configures a Registry.
type Option func(*Registry)

// WithBroadcastCapacity overrides DefaultBroadcastCapacity.
func WithBroadcastCapacity(n int) Option {
	return func(r *Registry) { r.broadcastCapacity = n }
}

// WithLogger sets the logger the registry and its supervisors log
// through. A nil logger (the default) installs a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		executions:        make(map[Handle]*execution),
		broadcastCapacity: DefaultBroadcastCapacity,
		logger:            logging.NewNop(),
		newHandle:         newUUIDHandle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute validates params against wf's schema, spawns the workflow,
// allocates its broadcast channel and log buffer, registers it under a
// fresh handle, and starts its supervisor in the background. It returns
// as soon as the child has started — it does not wait for completion.
func (r *Registry) Execute(ctx context.Context, wf core.DiscoveredWorkflow, params core.ParamMap) (Handle, error) {
	if err := ValidateInputs(wf, params); err != nil {
		return "", err
	}

	argv := discovery.BuildArgv(wf, params)
	cmd := exec.Command(wf.Path, argv...)
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", core.ErrSpawnFailed(err.Error()).WithCause(err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		_ = stdoutPipe.Close()
		return "", core.ErrSpawnFailed(err.Error()).WithCause(err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdoutPipe.Close()
		_ = stderrPipe.Close()
		return "", core.ErrSpawnFailed(err.Error()).WithCause(err)
	}

	handle := r.newHandle()
	ex := &execution{
		handle:     handle,
		workflowID: wf.ID,
		name:       wf.Name,
		binaryPath: wf.Path,
		params:     params,
		status:     StatusRunning,
		startTime:  time.Now(),
		cmd:        cmd,
		bus:        newBroadcaster(r.broadcastCapacity),
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	r.executions[handle] = ex
	r.mu.Unlock()

	r.logger.WithWorkflow(wf.ID).WithExecution(string(handle)).Info("workflow started", "pid", cmd.Process.Pid)

	go r.supervise(ex, stdoutPipe, stderrPipe)

	return handle, nil
}

// supervise reads stdout and stderr concurrently until both hit EOF, then
// reaps the child and transitions the execution to its terminal status.
// Only stderr lines are checked for the event sentinel; stdout is always
// informational, per the protocol.
func (r *Registry) supervise(e *execution, stdout, stderr io.ReadCloser) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		r.readStderr(e, stderr)
	}()
	go func() {
		defer wg.Done()
		r.readStdout(e, stdout)
	}()
	wg.Wait()

	err := e.cmd.Wait()
	end := time.Now()

	execLogger := r.logger.WithWorkflow(e.workflowID).WithExecution(string(e.handle))

	r.mu.Lock()
	e.endTime = &end
	if err != nil {
		e.status = StatusFailed
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			e.exitCode = &code
			execLogger.Warn("workflow exited non-zero", "exit_code", code)
		} else {
			sanitized := r.logger.Sanitize(err.Error())
			e.appendAndPublish(core.NewRawOutputEvent("stderr", err.Error()))
			execLogger.Error("workflow wait failed", "error", sanitized)
		}
	} else {
		e.status = StatusCompleted
		code := 0
		e.exitCode = &code
		execLogger.Info("workflow completed")
	}
	e.cmd = nil
	r.mu.Unlock()

	e.bus.Close()
	close(e.done)
}

func (r *Registry) readStderr(e *execution, pipe io.ReadCloser) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if event, ok := wfproto.ParseLine(line); ok {
			e.appendAndPublish(event)
			continue
		}
		e.appendAndPublish(core.NewRawOutputEvent("stderr", line))
	}
}

func (r *Registry) readStdout(e *execution, pipe io.ReadCloser) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		e.appendAndPublish(core.NewRawOutputEvent("stdout", scanner.Text()))
	}
}

// Cancel kills the execution's process directly and transitions it to
// Failed. Idempotent: calling it again, or on an already-terminal
// execution, is a no-op.
func (r *Registry) Cancel(handle Handle) error {
	r.mu.Lock()
	e, ok := r.executions[handle]
	if !ok {
		r.mu.Unlock()
		return core.ErrNotFound("execution", string(handle))
	}
	cmd := e.cmd
	e.cmd = nil
	if cmd == nil || e.status != StatusRunning {
		r.mu.Unlock()
		return nil
	}
	e.status = StatusFailed
	end := time.Now()
	e.endTime = &end
	r.mu.Unlock()

	r.logger.WithWorkflow(e.workflowID).WithExecution(string(handle)).Info("workflow cancelled")

	e.bus.Close()
	return killProcess(cmd)
}

// Status returns the current status of handle.
func (r *Registry) Status(handle Handle) (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executions[handle]
	if !ok {
		return "", core.ErrNotFound("execution", string(handle))
	}
	return e.status, nil
}

// Subscribe returns a new broadcast receiver for handle's event stream.
// A subscriber started after events have already been published only
// sees subsequent ones; combine with GetLogs for replay-plus-live.
func (r *Registry) Subscribe(handle Handle) (<-chan core.Event, error) {
	r.mu.RLock()
	e, ok := r.executions[handle]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrNotFound("execution", string(handle))
	}
	return e.bus.Subscribe(), nil
}

// GetLogs returns a snapshot of up to limit events from handle's
// append-only buffer, in insertion order. limit <= 0 means unbounded.
func (r *Registry) GetLogs(handle Handle, limit int) ([]core.Event, error) {
	r.mu.RLock()
	e, ok := r.executions[handle]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrNotFound("execution", string(handle))
	}
	return e.snapshotLogs(limit), nil
}

// GetParams returns the parameter map an execution was launched with.
func (r *Registry) GetParams(handle Handle) (core.ParamMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executions[handle]
	if !ok {
		return nil, core.ErrNotFound("execution", string(handle))
	}
	return e.params, nil
}

// ExecutionFilter narrows ListExecutions to executions matching every
// non-zero field.
type ExecutionFilter struct {
	WorkflowID string
	Status     Status
}

func (f ExecutionFilter) matches(s Summary) bool {
	if f.WorkflowID != "" && s.WorkflowID != f.WorkflowID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// ListExecutions returns execution summaries matching filter, ordered by
// start time descending, applying offset then limit (limit <= 0 means
// unbounded).
func (r *Registry) ListExecutions(limit, offset int, filter ExecutionFilter) []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Summary, 0, len(r.executions))
	for _, e := range r.executions {
		s := e.summary()
		if filter.matches(s) {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })

	if offset > 0 {
		if offset >= len(all) {
			return nil
		}
		all = all[offset:]
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Forget removes a terminal execution's state from the registry,
// releasing its log buffer. It errors if the execution is still Running
// or does not exist — this is the explicit eviction a long-lived host
// process calls on a policy of its own choosing (the spec leaves the
// policy open; conductor never calls this automatically).
func (r *Registry) Forget(handle Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executions[handle]
	if !ok {
		return core.ErrNotFound("execution", string(handle))
	}
	if e.status == StatusRunning {
		return core.ErrInvalidInput("STILL_RUNNING", "cannot forget a running execution")
	}
	delete(r.executions, handle)
	return nil
}

// Wait blocks until handle reaches a terminal status or ctx is done.
func (r *Registry) Wait(ctx context.Context, handle Handle) error {
	r.mu.RLock()
	e, ok := r.executions[handle]
	r.mu.RUnlock()
	if !ok {
		return core.ErrNotFound("execution", string(handle))
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
