package core

import "time"

// Event type discriminators. The string is exactly what appears in the
// wire JSON's "type" field.
const (
	TypePhaseStarted     = "phase_started"
	TypePhaseCompleted   = "phase_completed"
	TypePhaseFailed      = "phase_failed"
	TypeTaskStarted      = "task_started"
	TypeTaskProgress     = "task_progress"
	TypeTaskCompleted    = "task_completed"
	TypeTaskFailed       = "task_failed"
	TypeAgentStarted     = "agent_started"
	TypeAgentMessage     = "agent_message"
	TypeAgentCompleted   = "agent_completed"
	TypeAgentFailed      = "agent_failed"
	TypeStateFileCreated = "state_file_created"
	TypeRawOutput        = "raw_output"
)

// Event is the common interface satisfied by every workflow event variant.
// It mirrors the teacher's events.Event shape but drops the project-scoped
// filtering fields that belonged to quorum's multi-project registry —
// conductor has no notion of a project.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

// BaseEvent carries the fields common to every event variant: the type
// discriminator and the time it was constructed.
type BaseEvent struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.At }

func newBaseEvent(eventType string) BaseEvent {
	return BaseEvent{Type: eventType, At: time.Now()}
}

// PhaseStartedEvent is emitted when a workflow begins a new phase.
// Phase is a 0-based monotone counter per execution; TotalPhases is
// constant across an execution.
type PhaseStartedEvent struct {
	BaseEvent
	Phase       int    `json:"phase"`
	Name        string `json:"name"`
	TotalPhases int    `json:"total_phases"`
}

// NewPhaseStartedEvent constructs a PhaseStartedEvent.
func NewPhaseStartedEvent(phase int, name string, totalPhases int) PhaseStartedEvent {
	return PhaseStartedEvent{
		BaseEvent:   newBaseEvent(TypePhaseStarted),
		Phase:       phase,
		Name:        name,
		TotalPhases: totalPhases,
	}
}

// PhaseCompletedEvent is emitted when a phase finishes successfully.
type PhaseCompletedEvent struct {
	BaseEvent
	Phase int    `json:"phase"`
	Name  string `json:"name"`
}

// NewPhaseCompletedEvent constructs a PhaseCompletedEvent.
func NewPhaseCompletedEvent(phase int, name string) PhaseCompletedEvent {
	return PhaseCompletedEvent{
		BaseEvent: newBaseEvent(TypePhaseCompleted),
		Phase:     phase,
		Name:      name,
	}
}

// PhaseFailedEvent is emitted when a phase fails.
type PhaseFailedEvent struct {
	BaseEvent
	Phase int    `json:"phase"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// NewPhaseFailedEvent constructs a PhaseFailedEvent.
func NewPhaseFailedEvent(phase int, name string, err error) PhaseFailedEvent {
	return PhaseFailedEvent{
		BaseEvent: newBaseEvent(TypePhaseFailed),
		Phase:     phase,
		Name:      name,
		Error:     errString(err),
	}
}

// TaskStartedEvent is emitted when a task begins inside a phase. Phase is
// the same 0-based phase counter PhaseStartedEvent carries, not a phase
// name, so a consumer can correlate a task to its enclosing phase by
// equality.
type TaskStartedEvent struct {
	BaseEvent
	Phase       int    `json:"phase"`
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	TotalTasks  *int   `json:"total_tasks,omitempty"`
}

// NewTaskStartedEvent constructs a TaskStartedEvent. totalTasks is nil when
// the caller doesn't know the batch size (e.g. a lone task outside C7).
func NewTaskStartedEvent(phase int, taskID, description string, totalTasks *int) TaskStartedEvent {
	return TaskStartedEvent{
		BaseEvent:   newBaseEvent(TypeTaskStarted),
		Phase:       phase,
		TaskID:      taskID,
		Description: description,
		TotalTasks:  totalTasks,
	}
}

// TaskProgressEvent is emitted to report interim progress on a task.
type TaskProgressEvent struct {
	BaseEvent
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// NewTaskProgressEvent constructs a TaskProgressEvent.
func NewTaskProgressEvent(taskID, message string) TaskProgressEvent {
	return TaskProgressEvent{
		BaseEvent: newBaseEvent(TypeTaskProgress),
		TaskID:    taskID,
		Message:   message,
	}
}

// TaskCompletedEvent is emitted when a task finishes successfully.
type TaskCompletedEvent struct {
	BaseEvent
	TaskID string  `json:"task_id"`
	Result *string `json:"result,omitempty"`
}

// NewTaskCompletedEvent constructs a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID string, result *string) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent: newBaseEvent(TypeTaskCompleted),
		TaskID:    taskID,
		Result:    result,
	}
}

// TaskFailedEvent is emitted when a task fails.
type TaskFailedEvent struct {
	BaseEvent
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

// NewTaskFailedEvent constructs a TaskFailedEvent.
func NewTaskFailedEvent(taskID string, err error) TaskFailedEvent {
	return TaskFailedEvent{
		BaseEvent: newBaseEvent(TypeTaskFailed),
		TaskID:    taskID,
		Error:     errString(err),
	}
}

// AgentStartedEvent is emitted when an agent call inside a task begins.
type AgentStartedEvent struct {
	BaseEvent
	TaskID      string `json:"task_id"`
	AgentName   string `json:"agent_name"`
	Description string `json:"description"`
}

// NewAgentStartedEvent constructs an AgentStartedEvent.
func NewAgentStartedEvent(taskID, agentName, description string) AgentStartedEvent {
	return AgentStartedEvent{
		BaseEvent:   newBaseEvent(TypeAgentStarted),
		TaskID:      taskID,
		AgentName:   agentName,
		Description: description,
	}
}

// AgentMessageEvent is emitted for each content block an agent streams
// (text, tool use, tool result) flattened to a single message line.
type AgentMessageEvent struct {
	BaseEvent
	TaskID    string `json:"task_id"`
	AgentName string `json:"agent_name"`
	Message   string `json:"message"`
}

// NewAgentMessageEvent constructs an AgentMessageEvent.
func NewAgentMessageEvent(taskID, agentName, message string) AgentMessageEvent {
	return AgentMessageEvent{
		BaseEvent: newBaseEvent(TypeAgentMessage),
		TaskID:    taskID,
		AgentName: agentName,
		Message:   message,
	}
}

// AgentCompletedEvent is emitted when an agent call finishes successfully.
type AgentCompletedEvent struct {
	BaseEvent
	TaskID    string  `json:"task_id"`
	AgentName string  `json:"agent_name"`
	Result    *string `json:"result,omitempty"`
}

// NewAgentCompletedEvent constructs an AgentCompletedEvent.
func NewAgentCompletedEvent(taskID, agentName string, result *string) AgentCompletedEvent {
	return AgentCompletedEvent{
		BaseEvent: newBaseEvent(TypeAgentCompleted),
		TaskID:    taskID,
		AgentName: agentName,
		Result:    result,
	}
}

// AgentFailedEvent is emitted when an agent call fails.
type AgentFailedEvent struct {
	BaseEvent
	TaskID    string `json:"task_id"`
	AgentName string `json:"agent_name"`
	Error     string `json:"error"`
}

// NewAgentFailedEvent constructs an AgentFailedEvent.
func NewAgentFailedEvent(taskID, agentName string, err error) AgentFailedEvent {
	return AgentFailedEvent{
		BaseEvent: newBaseEvent(TypeAgentFailed),
		TaskID:    taskID,
		AgentName: agentName,
		Error:     errString(err),
	}
}

// StateFileCreatedEvent is emitted when a phase writes a file meant to
// carry state to a later phase (matching a StateFile field's pattern).
// Phase is the same 0-based phase counter PhaseStartedEvent carries.
type StateFileCreatedEvent struct {
	BaseEvent
	Phase       int    `json:"phase"`
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
}

// NewStateFileCreatedEvent constructs a StateFileCreatedEvent.
func NewStateFileCreatedEvent(phase int, filePath, description string) StateFileCreatedEvent {
	return StateFileCreatedEvent{
		BaseEvent:   newBaseEvent(TypeStateFileCreated),
		Phase:       phase,
		FilePath:    filePath,
		Description: description,
	}
}

// RawOutputEvent wraps any line a workflow writes that is not a recognized
// event: either the sentinel is absent, or JSON parsing failed after it.
// Never treated as fatal.
type RawOutputEvent struct {
	BaseEvent
	Stream string `json:"stream"` // "stdout" or "stderr"
	Line   string `json:"line"`
}

// NewRawOutputEvent constructs a RawOutputEvent.
func NewRawOutputEvent(stream, line string) RawOutputEvent {
	return RawOutputEvent{
		BaseEvent: newBaseEvent(TypeRawOutput),
		Stream:    stream,
		Line:      line,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
