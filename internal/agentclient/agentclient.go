// Package agentclient defines the contract conductor uses to drive an
// external conversational agent and stream its output back as a sequence
// of typed messages. The contract's implementation is always external —
// conductor ships one reference adapter under agentclient/subprocess so
// the rest of the runtime has something concrete to execute against.
package agentclient

import "context"

// Role distinguishes who produced a Message.
type Role string

const (
	RoleAssistant   Role = "assistant"
	RoleUser        Role = "user"
	RoleSystem      Role = "system"
	RoleResult      Role = "result"
	RoleStreamEvent Role = "stream_event"
)

// BlockKind identifies which attributes of a ContentBlock are meaningful.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockThinking   BlockKind = "thinking"
)

// ContentBlock is one piece of an Assistant or User message. It is
// sum-typed like core.Field: only the attributes for Kind are meaningful.
type ContentBlock struct {
	Kind BlockKind

	// Text carries the content for BlockText and BlockThinking.
	Text string

	// Name and Input carry the tool being invoked for BlockToolUse.
	Name  string
	Input string

	// ToolUseID identifies which BlockToolUse a BlockToolResult answers.
	ToolUseID string
}

// Message is one item in the stream Query returns. Role determines which
// fields are populated: Assistant/User carry Blocks, System carries Text,
// Result carries Text/IsError, StreamEvent carries Raw only.
type Message struct {
	Role    Role
	Blocks  []ContentBlock
	Text    string
	IsError bool
	Raw     []byte
}

// PermissionMode constrains which tool calls an agent may make without
// additional confirmation from its own host environment.
type PermissionMode string

const (
	PermissionDefault           PermissionMode = "default"
	PermissionAcceptEdits       PermissionMode = "accept_edits"
	PermissionBypassPermissions PermissionMode = "bypass_permissions"
	PermissionPlan              PermissionMode = "plan"
)

// QueryOptions configures one Query call.
type QueryOptions struct {
	// SystemPrompt is either literal text or, when SystemPromptPreset is
	// set, ignored in favor of the preset (optionally extended by
	// SystemPromptAppend).
	SystemPrompt       string
	SystemPromptPreset string
	SystemPromptAppend string

	AllowedTools   []string
	PermissionMode PermissionMode
	MaxTurns       int

	// MCPServers names MCP server bindings the agent should have available.
	MCPServers []string

	// AgentDefinitions names subagent definitions available to this call.
	AgentDefinitions []string
}

// MessageStream yields Messages until a Result arrives, Err returns any
// terminal error, and Close lets a caller stop consuming before the
// stream's natural end (cancellable by dropping, per the agent client
// contract — callers that just stop calling Next and call Close get the
// same effect as letting the stream go out of scope).
type MessageStream interface {
	// Next blocks until the next Message is available, the stream ends, or
	// ctx is done. It returns (Message{}, false, err) once ended; err is
	// nil for a clean end (the Result message was the last one returned by
	// a prior Next) and non-nil for a stream-level failure.
	Next(ctx context.Context) (Message, bool, error)
	Close() error
}

// Client is the single point of external agent integration.
type Client interface {
	Query(ctx context.Context, prompt string, opts QueryOptions) (MessageStream, error)
}
