package batch_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relaykit/conductor/internal/batch"
	"github.com/relaykit/conductor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteBatch_BoundedConcurrency(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i + 1
	}

	var inFlight, maxInFlight int64
	fn := func(ctx context.Context, item int, tc batch.TaskCtx) (int, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			cur := atomic.LoadInt64(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(time.Duration(item) * 5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return item, nil
	}

	out, err := batch.ExecuteBatch(context.Background(), 0, items, 3, fn)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(3))

	sum := 0
	for _, v := range out {
		sum += v
	}
	assert.Equal(t, 55, sum)
	assert.Len(t, out, 10)
}

func TestExecuteBatch_FailFast(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i + 1
	}

	wantErr := fmt.Errorf("item 3 exploded")
	fn := func(ctx context.Context, item int, tc batch.TaskCtx) (int, error) {
		if item == 3 {
			return 0, wantErr
		}
		time.Sleep(5 * time.Millisecond)
		return item, nil
	}

	out, err := batch.ExecuteBatch(context.Background(), 0, items, 5, fn)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorContains(t, err, "item 3 exploded")
}

func TestExecuteBatch_EmptyItems(t *testing.T) {
	out, err := batch.ExecuteBatch(context.Background(), 0, []int{}, 3, func(ctx context.Context, item int, tc batch.TaskCtx) (int, error) {
		t.Fatal("fn should not be called for an empty batch")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecuteTask_EmitsStartedAndCompleted(t *testing.T) {
	var events []core.Event
	sink := func(e core.Event) { events = append(events, e) }

	tc := batch.TaskCtx{Phase: 0, TaskNumber: 1, TotalTasks: 3}
	got := batch.ExecuteTask("t1", "do the thing", tc, sink, func() (string, string) {
		return "value", "done in 3ms"
	})

	assert.Equal(t, "value", got)
	require.Len(t, events, 2)

	started, ok := events[0].(core.TaskStartedEvent)
	require.True(t, ok)
	assert.Equal(t, 0, started.Phase)
	assert.Equal(t, "t1", started.TaskID)
	require.NotNil(t, started.TotalTasks)
	assert.Equal(t, 3, *started.TotalTasks)

	completed, ok := events[1].(core.TaskCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "t1", completed.TaskID)
	require.NotNil(t, completed.Result)
	assert.Equal(t, "done in 3ms", *completed.Result)
}

func TestExecuteTaskErr_EmitsFailedOnError(t *testing.T) {
	var events []core.Event
	sink := func(e core.Event) { events = append(events, e) }

	tc := batch.TaskCtx{Phase: 0, TaskNumber: 1, TotalTasks: 1}
	wantErr := fmt.Errorf("boom")
	_, err := batch.ExecuteTaskErr("t1", "do the thing", tc, sink, func() (string, string, error) {
		return "", "", wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.Len(t, events, 2)
	assert.Equal(t, core.TypeTaskStarted, events[0].EventType())
	failed, ok := events[1].(core.TaskFailedEvent)
	require.True(t, ok)
	assert.Equal(t, "boom", failed.Error)
}
