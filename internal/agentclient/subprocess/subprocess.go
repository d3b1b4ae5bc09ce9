// Package subprocess is conductor's reference agentclient.Client: it
// drives a local CLI that emits one stream-json event per stdout line —
// the same shape the teacher's ClaudeStreamParser consumes — so the rest
// of the runtime has something concrete to execute against in tests and
// examples. A production deployment supplies its own Client instead.
package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/relaykit/conductor/internal/agentclient"
)

// Config configures one Client.
type Config struct {
	Path    string
	Args    []string
	WorkDir string
	Env     map[string]string
	Timeout time.Duration
}

// Client drives Config.Path as a subprocess per Query call.
type Client struct {
	cfg Config
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Query spawns the configured CLI with prompt on stdin and the query
// options translated to flags, and returns a stream over its stdout.
func (c *Client) Query(ctx context.Context, prompt string, opts agentclient.QueryOptions) (agentclient.MessageStream, error) {
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = time.Hour
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	args := append([]string{}, c.cfg.Args...)
	args = append(args, "--output-format", "stream-json", "--print")
	args = applyQueryOptions(args, opts)

	cmd := exec.CommandContext(ctx, c.cfg.Path, args...)
	if c.cfg.WorkDir != "" {
		cmd.Dir = c.cfg.WorkDir
	}
	cmd.Stdin = strings.NewReader(prompt)

	cmd.Env = os.Environ()
	for k, v := range c.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	s := &stream{
		cmd:      cmd,
		cancel:   cancel,
		stderr:   &stderr,
		messages: make(chan agentclient.Message, 16),
		done:     make(chan error, 1),
	}
	go s.read(stdout)
	return s, nil
}

func applyQueryOptions(args []string, opts agentclient.QueryOptions) []string {
	switch {
	case opts.SystemPromptPreset != "":
		args = append(args, "--system-prompt-preset", opts.SystemPromptPreset)
		if opts.SystemPromptAppend != "" {
			args = append(args, "--append-system-prompt", opts.SystemPromptAppend)
		}
	case opts.SystemPrompt != "":
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowed-tools", strings.Join(opts.AllowedTools, ","))
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", string(opts.PermissionMode))
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprintf("%d", opts.MaxTurns))
	}
	for _, m := range opts.MCPServers {
		args = append(args, "--mcp-server", m)
	}
	for _, a := range opts.AgentDefinitions {
		args = append(args, "--agent", a)
	}
	return args
}

// stream reads stdout line by line in the background and hands decoded
// messages to Next; it never blocks a caller that stops calling Next.
type stream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *bytes.Buffer

	messages chan agentclient.Message
	done     chan error

	closeOnce sync.Once
}

func (s *stream) read(stdout io.ReadCloser) {
	defer close(s.messages)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 256*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, ok := decodeLine(line)
		if !ok {
			continue
		}
		s.messages <- msg
	}

	scanErr := scanner.Err()
	waitErr := s.cmd.Wait()
	s.cancel()

	switch {
	case scanErr != nil:
		s.done <- fmt.Errorf("reading agent stream: %w", scanErr)
	case waitErr != nil:
		s.done <- fmt.Errorf("agent process: %w: %s", waitErr, s.stderr.String())
	default:
		s.done <- nil
	}
	close(s.done)
}

// Next implements agentclient.MessageStream.
func (s *stream) Next(ctx context.Context) (agentclient.Message, bool, error) {
	select {
	case msg, ok := <-s.messages:
		if ok {
			return msg, true, nil
		}
		return agentclient.Message{}, false, <-s.done
	case <-ctx.Done():
		return agentclient.Message{}, false, ctx.Err()
	}
}

// Close implements agentclient.MessageStream by killing the subprocess if
// it is still running; it is safe to call more than once.
func (s *stream) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

type wireEvent struct {
	Type    string          `json:"type"`
	Content []wireBlock     `json:"content"`
	IsError bool            `json:"is_error"`
	Result  json.RawMessage `json:"result"`
	Text    string          `json:"text"`
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
}

func decodeLine(line []byte) (agentclient.Message, bool) {
	var event wireEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return agentclient.Message{}, false
	}

	switch event.Type {
	case "assistant":
		return agentclient.Message{Role: agentclient.RoleAssistant, Blocks: convertBlocks(event.Content)}, true
	case "user":
		return agentclient.Message{Role: agentclient.RoleUser, Blocks: convertBlocks(event.Content), IsError: event.IsError}, true
	case "system":
		return agentclient.Message{Role: agentclient.RoleSystem, Text: event.Text}, true
	case "stream_event":
		return agentclient.Message{Role: agentclient.RoleStreamEvent, Raw: append([]byte(nil), line...)}, true
	case "result":
		return agentclient.Message{Role: agentclient.RoleResult, Text: event.Text, IsError: event.IsError, Raw: event.Result}, true
	default:
		return agentclient.Message{}, false
	}
}

func convertBlocks(blocks []wireBlock) []agentclient.ContentBlock {
	out := make([]agentclient.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, agentclient.ContentBlock{Kind: agentclient.BlockText, Text: b.Text})
		case "tool_use":
			out = append(out, agentclient.ContentBlock{Kind: agentclient.BlockToolUse, Name: b.Name, Input: string(b.Input)})
		case "tool_result":
			out = append(out, agentclient.ContentBlock{Kind: agentclient.BlockToolResult, ToolUseID: b.ToolUseID})
		case "thinking":
			out = append(out, agentclient.ContentBlock{Kind: agentclient.BlockThinking, Text: b.Text})
		}
	}
	return out
}
