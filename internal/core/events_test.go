package core_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/relaykit/conductor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseStartedEvent(t *testing.T) {
	e := core.NewPhaseStartedEvent(0, "Analyze", 3)
	assert.Equal(t, core.TypePhaseStarted, e.EventType())
	assert.False(t, e.Timestamp().IsZero())

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "phase_started", raw["type"])
	assert.Equal(t, float64(0), raw["phase"])
	assert.Equal(t, "Analyze", raw["name"])
	assert.Equal(t, float64(3), raw["total_phases"])
}

func TestPhaseFailedEvent_ErrorString(t *testing.T) {
	e := core.NewPhaseFailedEvent(1, "Plan", errors.New("boom"))
	assert.Equal(t, "boom", e.Error)

	e2 := core.NewPhaseFailedEvent(1, "Plan", nil)
	assert.Equal(t, "", e2.Error)
}

func TestTaskStartedEvent_OptionalTotalTasks(t *testing.T) {
	total := 5
	e := core.NewTaskStartedEvent(0, "t1", "do work", &total)
	require.NotNil(t, e.TotalTasks)
	assert.Equal(t, 5, *e.TotalTasks)

	noTotal := core.NewTaskStartedEvent(0, "t1", "do work", nil)
	assert.Nil(t, noTotal.TotalTasks)
}

func TestAgentEvents(t *testing.T) {
	started := core.NewAgentStartedEvent("t1", "reviewer", "review diff")
	assert.Equal(t, core.TypeAgentStarted, started.EventType())

	msg := core.NewAgentMessageEvent("t1", "reviewer", "using tool: grep")
	assert.Equal(t, "using tool: grep", msg.Message)

	brief := "looks good"
	completed := core.NewAgentCompletedEvent("t1", "reviewer", &brief)
	require.NotNil(t, completed.Result)
	assert.Equal(t, "looks good", *completed.Result)

	failed := core.NewAgentFailedEvent("t1", "reviewer", errors.New("timeout"))
	assert.Equal(t, "timeout", failed.Error)
}

func TestRawOutputEvent(t *testing.T) {
	e := core.NewRawOutputEvent("stderr", "hello world")
	assert.Equal(t, core.TypeRawOutput, e.EventType())
	assert.Equal(t, "stderr", e.Stream)
	assert.Equal(t, "hello world", e.Line)
}

func TestStateFileCreatedEvent(t *testing.T) {
	e := core.NewStateFileCreatedEvent(0, "/tmp/state.yaml", "analysis summary")
	assert.Equal(t, core.TypeStateFileCreated, e.EventType())
	assert.Equal(t, "/tmp/state.yaml", e.FilePath)
}
