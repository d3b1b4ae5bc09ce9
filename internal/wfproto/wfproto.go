// Package wfproto implements the sentinel-prefixed event wire protocol:
// one JSON object per line on a workflow child's stderr, each prefixed
// with the literal "__WF_EVENT__:".
package wfproto

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/relaykit/conductor/internal/core"
)

// Sentinel marks an event line on a workflow's stderr.
const Sentinel = "__WF_EVENT__:"

// Emit writes one event line to w: the sentinel, compact JSON, and a
// trailing newline. If w is backed by an *os.File the write is flushed to
// the OS synchronously. Emit returns any write error to its caller; the
// sdk's logging macros are the ones responsible for swallowing it, since
// a workflow's own logging must never abort the workflow.
func Emit(w io.Writer, event core.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(Sentinel)
	buf.Write(data)
	buf.WriteByte('\n')

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
	return nil
}

// envelope reads just the discriminator so ParseLine can dispatch to the
// right concrete struct without double-decoding the whole payload twice.
type envelope struct {
	Type string `json:"type"`
}

// ParseLine decodes one line from a workflow's stderr. It returns
// (event, true) when the line carries the sentinel and well-formed JSON
// for a recognized event type; it returns (nil, false) for anything else
// (missing sentinel, malformed JSON, or an unrecognized type tag). The
// caller — typically the runtime's supervisor — is responsible for
// synthesizing a RawOutputEvent from the original line and its stream name
// when ParseLine reports false. ParseLine never panics.
func ParseLine(line string) (core.Event, bool) {
	rest, ok := strings.CutPrefix(line, Sentinel)
	if !ok {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(rest), &env); err != nil {
		return nil, false
	}

	raw := []byte(rest)

	switch env.Type {
	case core.TypePhaseStarted:
		var e core.PhaseStartedEvent
		return decode(raw, &e)
	case core.TypePhaseCompleted:
		var e core.PhaseCompletedEvent
		return decode(raw, &e)
	case core.TypePhaseFailed:
		var e core.PhaseFailedEvent
		return decode(raw, &e)
	case core.TypeTaskStarted:
		var e core.TaskStartedEvent
		return decode(raw, &e)
	case core.TypeTaskProgress:
		var e core.TaskProgressEvent
		return decode(raw, &e)
	case core.TypeTaskCompleted:
		var e core.TaskCompletedEvent
		return decode(raw, &e)
	case core.TypeTaskFailed:
		var e core.TaskFailedEvent
		return decode(raw, &e)
	case core.TypeAgentStarted:
		var e core.AgentStartedEvent
		return decode(raw, &e)
	case core.TypeAgentMessage:
		var e core.AgentMessageEvent
		return decode(raw, &e)
	case core.TypeAgentCompleted:
		var e core.AgentCompletedEvent
		return decode(raw, &e)
	case core.TypeAgentFailed:
		var e core.AgentFailedEvent
		return decode(raw, &e)
	case core.TypeStateFileCreated:
		var e core.StateFileCreatedEvent
		return decode(raw, &e)
	case core.TypeRawOutput:
		var e core.RawOutputEvent
		return decode(raw, &e)
	default:
		return nil, false
	}
}

// decode is a small generic helper so each ParseLine case stays one line;
// it hides the Unmarshal-into-pointer/deref-to-value dance that struct
// value receivers on core.Event require.
func decode[T core.Event](raw []byte, dst *T) (core.Event, bool) {
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, false
	}
	return *dst, true
}
