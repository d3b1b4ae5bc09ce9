package sdk_test

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/sdk"
	"github.com/relaykit/conductor/internal/wfproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldBuilders(t *testing.T) {
	min, max := 1.0, 5.0
	fields := []core.Field{
		sdk.TextField("topic", "Topic", "--topic", true),
		sdk.NumberField("count", "Count", "--count", false, &min, &max),
		sdk.FilePathField("input", "Input", "--input", "*.go", true),
		sdk.SelectField("mode", "Mode", "--mode", false, []string{"fast", "slow"}),
		sdk.PhaseSelectorField("phase", "Phase", "--phase", false, 3),
		sdk.StateFileField("state", "State", "--state", "state-*.json", "analyze", false),
	}

	assert.Equal(t, core.FieldKindText, fields[0].Kind)
	assert.True(t, fields[0].Required)

	assert.Equal(t, core.FieldKindNumber, fields[1].Kind)
	assert.Equal(t, 1.0, *fields[1].Min)
	assert.Equal(t, 5.0, *fields[1].Max)

	assert.Equal(t, core.FieldKindFilePath, fields[2].Kind)
	assert.Equal(t, "*.go", fields[2].GlobPattern)

	assert.Equal(t, core.FieldKindSelect, fields[3].Kind)
	assert.Equal(t, []string{"fast", "slow"}, fields[3].Options)

	assert.Equal(t, core.FieldKindPhaseSelector, fields[4].Kind)
	assert.Equal(t, 3, fields[4].TotalPhases)

	assert.Equal(t, core.FieldKindStateFile, fields[5].Kind)
	assert.Equal(t, "analyze", fields[5].OriginatingPhase)
}

func readEvents(t *testing.T, buf *bytes.Buffer) []core.Event {
	t.Helper()
	var out []core.Event
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		event, ok := wfproto.ParseLine(scanner.Text())
		require.True(t, ok)
		out = append(out, event)
	}
	return out
}

func TestWorkflowLog_EmitsParsableEvents(t *testing.T) {
	var buf bytes.Buffer
	log := sdk.NewWorkflowLog(&buf)

	log.PhaseStarted(0, "Analyze", 2)
	log.TaskStarted(0, "t1", "doing work", nil)
	log.TaskProgress("t1", "halfway")
	log.TaskCompleted("t1", nil)
	log.PhaseFailed(0, "Analyze", errors.New("boom"))

	events := readEvents(t, &buf)
	require.Len(t, events, 5)
	assert.Equal(t, core.TypePhaseStarted, events[0].EventType())
	assert.Equal(t, core.TypeTaskStarted, events[1].EventType())
	assert.Equal(t, core.TypeTaskProgress, events[2].EventType())
	assert.Equal(t, core.TypeTaskCompleted, events[3].EventType())

	failed, ok := events[4].(core.PhaseFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "boom", failed.Error)
}

func TestWorkflowLog_SinkFeedsBatchEvents(t *testing.T) {
	var buf bytes.Buffer
	log := sdk.NewWorkflowLog(&buf)

	// ExecuteTask emits through the package-level sdk.Log singleton;
	// redirect it for the duration of the call to capture its output.
	original := sdk.Log
	sdk.Log = log
	defer func() { sdk.Log = original }()

	value := sdk.ExecuteTask("t2", "work", sdk.TaskCtx{Phase: 0, TaskNumber: 1, TotalTasks: 1}, func() (int, string) {
		return 7, "seven"
	})
	assert.Equal(t, 7, value)

	events := readEvents(t, &buf)
	require.Len(t, events, 2)
	assert.Equal(t, core.TypeTaskStarted, events[0].EventType())
	assert.Equal(t, core.TypeTaskCompleted, events[1].EventType())
}

func TestNewTaskID_UniqueAndNonEmpty(t *testing.T) {
	a := sdk.NewTaskID()
	b := sdk.NewTaskID()
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}
