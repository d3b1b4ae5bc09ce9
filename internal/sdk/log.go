package sdk

import (
	"io"
	"os"
	"sync"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/wfproto"
)

// WorkflowLog emits the event vocabulary of spec.md §3 onto a workflow's
// stderr via wfproto.Emit. A workflow binary uses the package-level Log
// singleton (installed by Main) so phase code never threads a logger
// through every call.
type WorkflowLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWorkflowLog builds a WorkflowLog writing to w.
func NewWorkflowLog(w io.Writer) *WorkflowLog {
	return &WorkflowLog{w: w}
}

// Log is the process-wide workflow logger. Main installs it pointing at
// os.Stderr before invoking the workflow's run function; it defaults to
// os.Stderr so unit tests that call the log_* helpers directly without
// going through Main still work.
var Log = NewWorkflowLog(os.Stderr)

func (l *WorkflowLog) emit(event core.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// A logging write failure must never abort the workflow: per C1's
	// encoder contract, swallow it.
	_ = wfproto.Emit(l.w, event)
}

// PhaseStarted emits PhaseStarted{phase, name, totalPhases}.
func (l *WorkflowLog) PhaseStarted(phase int, name string, totalPhases int) {
	l.emit(core.NewPhaseStartedEvent(phase, name, totalPhases))
}

// PhaseCompleted emits PhaseCompleted{phase, name}.
func (l *WorkflowLog) PhaseCompleted(phase int, name string) {
	l.emit(core.NewPhaseCompletedEvent(phase, name))
}

// PhaseFailed emits PhaseFailed{phase, name, error}.
func (l *WorkflowLog) PhaseFailed(phase int, name string, err error) {
	l.emit(core.NewPhaseFailedEvent(phase, name, err))
}

// TaskStarted emits TaskStarted{phase, taskID, description, totalTasks?}.
func (l *WorkflowLog) TaskStarted(phase int, taskID, description string, totalTasks *int) {
	l.emit(core.NewTaskStartedEvent(phase, taskID, description, totalTasks))
}

// TaskProgress emits TaskProgress{taskID, message}.
func (l *WorkflowLog) TaskProgress(taskID, message string) {
	l.emit(core.NewTaskProgressEvent(taskID, message))
}

// TaskCompleted emits TaskCompleted{taskID, result?}.
func (l *WorkflowLog) TaskCompleted(taskID string, result *string) {
	l.emit(core.NewTaskCompletedEvent(taskID, result))
}

// TaskFailed emits TaskFailed{taskID, error}.
func (l *WorkflowLog) TaskFailed(taskID string, err error) {
	l.emit(core.NewTaskFailedEvent(taskID, err))
}

// AgentStarted emits AgentStarted{taskID, agentName, description}.
func (l *WorkflowLog) AgentStarted(taskID, agentName, description string) {
	l.emit(core.NewAgentStartedEvent(taskID, agentName, description))
}

// AgentMessage emits AgentMessage{taskID, agentName, message}.
func (l *WorkflowLog) AgentMessage(taskID, agentName, message string) {
	l.emit(core.NewAgentMessageEvent(taskID, agentName, message))
}

// AgentCompleted emits AgentCompleted{taskID, agentName, result?}.
func (l *WorkflowLog) AgentCompleted(taskID, agentName string, result *string) {
	l.emit(core.NewAgentCompletedEvent(taskID, agentName, result))
}

// AgentFailed emits AgentFailed{taskID, agentName, error}.
func (l *WorkflowLog) AgentFailed(taskID, agentName string, err error) {
	l.emit(core.NewAgentFailedEvent(taskID, agentName, err))
}

// StateFileCreated emits StateFileCreated{phase, filePath, description}.
func (l *WorkflowLog) StateFileCreated(phase int, filePath, description string) {
	l.emit(core.NewStateFileCreatedEvent(phase, filePath, description))
}

// Sink adapts l into a batch/agentexec EventSink so ExecuteBatch,
// ExecuteTask and ExecuteAgent calls can feed it directly.
func (l *WorkflowLog) Sink() func(core.Event) {
	return l.emit
}
