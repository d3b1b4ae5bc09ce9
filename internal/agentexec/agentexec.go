// Package agentexec runs one agent call end to end, turning an
// agentclient.MessageStream into a flat accumulated string and the
// AgentStarted/AgentMessage/AgentCompleted/AgentFailed event sequence.
package agentexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaykit/conductor/internal/agentclient"
	"github.com/relaykit/conductor/internal/core"
)

// EventSink receives each event ExecuteAgent emits, in order. A nil sink
// is valid and simply discards every event.
type EventSink func(core.Event)

// Config carries everything one agent call needs.
type Config struct {
	TaskID      string
	AgentName   string
	Description string
	Prompt      string
	Options     agentclient.QueryOptions
}

// ExecuteAgent drives one query against client to completion and returns
// the concatenation of every text block the agent streamed. It never
// emits TaskStarted/TaskCompleted/TaskFailed — those are the batch
// executor's responsibility, one level up.
func ExecuteAgent(ctx context.Context, client agentclient.Client, cfg Config, sink EventSink) (string, error) {
	emit := func(e core.Event) {
		if sink != nil {
			sink(e)
		}
	}

	emit(core.NewAgentStartedEvent(cfg.TaskID, cfg.AgentName, cfg.Description))

	stream, err := client.Query(ctx, cfg.Prompt, cfg.Options)
	if err != nil {
		wrapped := core.ErrSpawnFailed(err.Error()).WithCause(err)
		emit(core.NewAgentFailedEvent(cfg.TaskID, cfg.AgentName, wrapped))
		return "", wrapped
	}
	defer stream.Close()

	var accumulator strings.Builder
	for {
		msg, ok, err := stream.Next(ctx)
		if err != nil {
			emit(core.NewAgentFailedEvent(cfg.TaskID, cfg.AgentName, err))
			return accumulator.String(), err
		}
		if !ok {
			// The stream ended without ever producing a Result message. A
			// conforming client always terminates with Result; treat this as
			// a successful completion rather than hang the caller.
			return complete(cfg, accumulator.String(), emit), nil
		}

		switch msg.Role {
		case agentclient.RoleAssistant:
			for _, block := range msg.Blocks {
				switch block.Kind {
				case agentclient.BlockText:
					accumulator.WriteString(block.Text)
					emit(core.NewAgentMessageEvent(cfg.TaskID, cfg.AgentName, block.Text))
				case agentclient.BlockToolUse:
					emit(core.NewAgentMessageEvent(cfg.TaskID, cfg.AgentName, "using tool: "+block.Name))
				case agentclient.BlockToolResult:
					emit(core.NewAgentMessageEvent(cfg.TaskID, cfg.AgentName, "tool result: "+block.ToolUseID))
				}
			}
		case agentclient.RoleResult:
			if msg.IsError {
				failure := core.ErrAgentFailure(msg.Text)
				emit(core.NewAgentFailedEvent(cfg.TaskID, cfg.AgentName, failure))
				return accumulator.String(), failure
			}
			return complete(cfg, accumulator.String(), emit), nil
		}
	}
}

func complete(cfg Config, result string, emit func(core.Event)) string {
	brief := fmt.Sprintf("%d characters", len(result))
	emit(core.NewAgentCompletedEvent(cfg.TaskID, cfg.AgentName, &brief))
	return result
}
