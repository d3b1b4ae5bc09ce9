package runtime_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relaykit/conductor/internal/core"
	"github.com/relaykit/conductor/internal/runtime"
	"github.com/relaykit/conductor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successfulWorkflow(t *testing.T, dir string) core.DiscoveredWorkflow {
	t.Helper()
	script := `#!/bin/sh
if [ "$1" = "--workflow-metadata" ]; then
  echo '{"id":"greet","name":"Greet","description":"","fields":[]}'
  exit 0
fi
echo '__WF_EVENT__:{"type":"phase_started","phase":0,"name":"P","total_phases":1}' 1>&2
echo '__WF_EVENT__:{"type":"phase_completed","phase":0,"name":"P"}' 1>&2
exit 0
`
	path := testutil.WriteExecutable(t, dir, "greeter", script)
	return core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{Metadata: core.Metadata{ID: "greet", Name: "Greet"}},
		Path:                 path,
	}
}

func sleepyWorkflow(t *testing.T, dir string) core.DiscoveredWorkflow {
	t.Helper()
	script := `#!/bin/sh
if [ "$1" = "--workflow-metadata" ]; then
  echo '{"id":"sleepy","name":"Sleepy","description":"","fields":[]}'
  exit 0
fi
echo '__WF_EVENT__:{"type":"phase_started","phase":0,"name":"P","total_phases":1}' 1>&2
sleep 60
exit 0
`
	path := testutil.WriteExecutable(t, dir, "sleepy", script)
	return core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{Metadata: core.Metadata{ID: "sleepy", Name: "Sleepy"}},
		Path:                 path,
	}
}

func TestRegistry_ExecutionLifecycle_Completes(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := successfulWorkflow(t, dir)

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, handle))

	status, err := r.Status(handle)
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusCompleted, status)

	logs, err := r.GetLogs(handle, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, core.TypePhaseStarted, logs[0].EventType())
	assert.Equal(t, core.TypePhaseCompleted, logs[1].EventType())
	for _, e := range logs {
		assert.NotEqual(t, core.TypeRawOutput, e.EventType())
	}
}

func TestRegistry_Subscribe_ReceivesLiveEvents(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := successfulWorkflow(t, dir)

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	sub, err := r.Subscribe(handle)
	require.NoError(t, err)

	var got []core.Event
	for e := range sub {
		got = append(got, e)
	}
	assert.Len(t, got, 2)
}

func TestRegistry_RawOutput_FromUnrecognizedStderrLines(t *testing.T) {
	dir := testutil.TempDir(t)
	script := `#!/bin/sh
if [ "$1" = "--workflow-metadata" ]; then
  echo '{"id":"noisy","name":"Noisy","description":"","fields":[]}'
  exit 0
fi
echo '__WF_EVENT__:{"type":"phase_started","phase":0,"name":"A","total_phases":2}' 1>&2
echo 'hello world' 1>&2
echo '__WF_EVENT__:not-json' 1>&2
exit 0
`
	path := testutil.WriteExecutable(t, dir, "noisy", script)
	wf := core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{Metadata: core.Metadata{ID: "noisy", Name: "Noisy"}},
		Path:                 path,
	}

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, handle))

	logs, err := r.GetLogs(handle, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	started, ok := logs[0].(core.PhaseStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "A", started.Name)

	raw1, ok := logs[1].(core.RawOutputEvent)
	require.True(t, ok)
	assert.Equal(t, "stderr", raw1.Stream)
	assert.Equal(t, "hello world", raw1.Line)

	raw2, ok := logs[2].(core.RawOutputEvent)
	require.True(t, ok)
	assert.Equal(t, "__WF_EVENT__:not-json", raw2.Line)
}

func TestRegistry_FailedExitCode_TransitionsToFailed(t *testing.T) {
	dir := testutil.TempDir(t)
	script := `#!/bin/sh
if [ "$1" = "--workflow-metadata" ]; then
  echo '{"id":"broken","name":"Broken","description":"","fields":[]}'
  exit 0
fi
exit 1
`
	path := testutil.WriteExecutable(t, dir, "broken", script)
	wf := core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{Metadata: core.Metadata{ID: "broken", Name: "Broken"}},
		Path:                 path,
	}

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, handle))

	status, err := r.Status(handle)
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusFailed, status)
}

func TestRegistry_Cancel_KillsProcessAndClosesSubscribers(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := sleepyWorkflow(t, dir)

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	// Give the child a moment to emit PhaseStarted before cancelling.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, r.Cancel(handle))

	status, err := r.Status(handle)
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusFailed, status)

	sub, err := r.Subscribe(handle)
	require.NoError(t, err)
	_, open := <-sub
	assert.False(t, open, "subscriber channel should be closed immediately after cancel")

	assert.NoError(t, r.Cancel(handle), "cancel must be idempotent")
}

func TestRegistry_Cancel_UnknownHandle(t *testing.T) {
	r := runtime.NewRegistry()
	err := r.Cancel("does-not-exist")
	assert.True(t, core.IsCategory(err, core.CategoryNotFound))
}

func TestRegistry_Status_UnknownHandle(t *testing.T) {
	r := runtime.NewRegistry()
	_, err := r.Status("does-not-exist")
	assert.True(t, core.IsCategory(err, core.CategoryNotFound))
}

func TestRegistry_ListExecutions_OrderedByStartDescending(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := successfulWorkflow(t, dir)

	r := runtime.NewRegistry()
	h1, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	h2, err := r.Execute(context.Background(), wf, core.ParamMap{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, h1))
	require.NoError(t, r.Wait(ctx, h2))

	list := r.ListExecutions(0, 0, runtime.ExecutionFilter{})
	require.Len(t, list, 2)
	assert.Equal(t, h2, list[0].Handle)
	assert.Equal(t, h1, list[1].Handle)
}

func TestRegistry_Export_WritesPersistedExecutionSnapshot(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := successfulWorkflow(t, dir)

	r := runtime.NewRegistry()
	handle, err := r.Execute(context.Background(), wf, core.ParamMap{"greeting": "hi"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx, handle))

	exportPath := filepath.Join(dir, "exports", "greet.json")
	require.NoError(t, r.Export(handle, exportPath))

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)

	var pe runtime.PersistedExecution
	require.NoError(t, json.Unmarshal(data, &pe))
	assert.Equal(t, handle, pe.Handle)
	assert.Equal(t, "greet", pe.WorkflowID)
	assert.Equal(t, runtime.StatusCompleted, pe.Status)
	assert.Equal(t, core.ParamMap{"greeting": "hi"}, pe.Params)
	require.Len(t, pe.Events, 2)
}

func TestRegistry_Export_ScrubbedOutputIsStableAcrossRuns(t *testing.T) {
	dir := testutil.TempDir(t)
	wf := successfulWorkflow(t, dir)

	run := func() string {
		r := runtime.NewRegistry()
		handle, err := r.Execute(context.Background(), wf, core.ParamMap{"greeting": "hi"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, r.Wait(ctx, handle))

		exportPath := filepath.Join(dir, string(handle)+".json")
		require.NoError(t, r.Export(handle, exportPath))

		data, err := os.ReadFile(exportPath)
		require.NoError(t, err)

		require.Contains(t, string(data), string(handle), "fixture must actually contain a UUID handle before scrubbing")
		return testutil.ScrubAll(string(data), dir)
	}

	a, b := run(), run()
	assert.Contains(t, a, "[UUID]", "ScrubUUIDs should have masked the execution handle")
	assert.Equal(t, testutil.Normalize(a), a, "scrubbed output should already be normalized")
	assert.Equal(t, a, b, "two runs differing only in handle/timestamps should scrub to the same golden text")
}

func TestRegistry_Export_UnknownHandle(t *testing.T) {
	r := runtime.NewRegistry()
	err := r.Export("nope", filepath.Join(t.TempDir(), "out.json"))
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.CategoryNotFound))
}

func TestValidateInputs_MissingRequiredField(t *testing.T) {
	wf := core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{
			Fields: []core.Field{{Name: "target", CLIArg: "--target", Required: true}},
		},
	}
	err := runtime.ValidateInputs(wf, core.ParamMap{})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.CategoryInvalidInput))
}

func TestValidateInputs_NumberOutOfRange(t *testing.T) {
	min, max := 1.0, 10.0
	wf := core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{
			Fields: []core.Field{{Name: "count", CLIArg: "--count", Kind: core.FieldKindNumber, Min: &min, Max: &max}},
		},
	}
	err := runtime.ValidateInputs(wf, core.ParamMap{"count": "20"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.CategoryInvalidInput))
}

func TestValidateInputs_UnknownFieldIsPermitted(t *testing.T) {
	wf := core.DiscoveredWorkflow{FullWorkflowMetadata: core.FullWorkflowMetadata{Fields: []core.Field{}}}
	err := runtime.ValidateInputs(wf, core.ParamMap{"surprise": "value"})
	assert.NoError(t, err)
}

func TestValidateInputs_DefaultSatisfiesRequired(t *testing.T) {
	wf := core.DiscoveredWorkflow{
		FullWorkflowMetadata: core.FullWorkflowMetadata{
			Fields: []core.Field{{Name: "target", CLIArg: "--target", Required: true, Default: "."}},
		},
	}
	err := runtime.ValidateInputs(wf, core.ParamMap{})
	assert.NoError(t, err)
}
