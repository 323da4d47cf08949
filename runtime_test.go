package memoryruntime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mr "github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage/memstore"
	"github.com/agentcore/memoryruntime/tokenizer"
)

type alwaysCompactor struct{}

func (alwaysCompactor) CanCompact(chunks []*mr.Chunk) bool { return len(chunks) > 0 }

func (alwaysCompactor) Compact(_ context.Context, cc mr.CompactionContext) (*mr.Chunk, error) {
	return mr.NewChunk(mr.ChunkTypeCompacted, &mr.TextContent{Text: "summary"}), nil
}

func newTestRuntime() *mr.Runtime {
	return mr.NewRuntime(memstore.New(), nil)
}

func TestRuntimeCreateThreadStartsEmpty(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()

	thread, state, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, thread.CurrentStateID, state.ID)
	assert.Equal(t, thread.InitialStateID, state.ID)
	assert.Empty(t, state.ChunkIDs)
}

func TestRuntimeDispatchAutoModeCreatesWorkingHistory(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "hello there"},
	})
	require.NoError(t, err)
	require.Len(t, result.State.ChunkIDs, 1)

	container, ok := result.State.Chunk(result.State.ChunkIDs[0])
	require.True(t, ok)
	assert.Equal(t, mr.ChunkTypeWorkingHistory, container.Type)
	require.Len(t, container.ChildIDs, 1)
}

func TestRuntimeDispatchSteppingModeQueuesInsteadOfProcessing(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, initial, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	rt.Mode.SetMode(thread.ID, mr.ModeStepping)

	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "queued"},
	})
	require.NoError(t, err)
	assert.Equal(t, initial.ID, result.State.ID, "stepping mode must not process immediately")

	n, err := rt.Store.GetEventQueueLength(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stepped, err := rt.Dispatcher.ManualStep(ctx, thread.ID)
	require.NoError(t, err)
	assert.NotEqual(t, initial.ID, stepped.State.ID)
}

func TestRuntimeManualStepWithoutSteppingModeErrors(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	_, err = rt.Dispatcher.ManualStep(ctx, thread.ID)
	assert.ErrorIs(t, err, mr.ErrNotStepping)
}

func TestRuntimeLifecycleEventTerminatesDispatch(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{Type: mr.EventTaskCompleted})
	require.NoError(t, err)
	assert.True(t, result.ShouldTerminate)
	assert.Equal(t, mr.DispatchTerminate, result.DispatchStrategy)
}

func TestRuntimeDeleteThreadForgetsModeState(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	rt.Mode.SetMode(thread.ID, mr.ModeStepping)
	require.NoError(t, rt.DeleteThread(ctx, thread.ID))

	assert.Equal(t, mr.ModeAuto, rt.Mode.Mode(thread.ID))
	_, err = rt.Store.GetThread(ctx, thread.ID)
	assert.ErrorIs(t, err, mr.ErrThreadNotFound)
}

func TestRuntimeDrainRecordsCompactionHistory(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	cfg := mr.CompactionConfig{SoftThreshold: 1, HardThreshold: 2, TruncationThreshold: 1000}
	cm := mr.NewCompactionManager(cfg, tokenizer.New("char-count"), nil)
	cm.RegisterCompactor(alwaysCompactor{})
	rt := mr.NewRuntime(store, cm)

	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": strings.Repeat("x", 64)},
	})
	require.NoError(t, err)
	_ = result

	persisted, err := rt.Store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.NotEmpty(t, persisted.CompactionHistory)
	rec := persisted.CompactionHistory[0]
	assert.NotEmpty(t, rec.SummaryChunkID)
	assert.GreaterOrEqual(t, rec.TokensBefore, rec.TokensAfter)
}

func TestAcquireAndReleaseStepLock(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()
	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	_, err = mr.AcquireStepLock(ctx, rt.Store, thread.ID, "step-1")
	require.NoError(t, err)

	_, err = mr.AcquireStepLock(ctx, rt.Store, thread.ID, "step-2")
	assert.ErrorIs(t, err, mr.ErrStepLockHeld)

	err = mr.ReleaseStepLock(ctx, rt.Store, thread.ID, "wrong-step")
	assert.ErrorIs(t, err, mr.ErrStepLockMismatch)

	require.NoError(t, mr.ReleaseStepLock(ctx, rt.Store, thread.ID, "step-1"))

	_, err = mr.AcquireStepLock(ctx, rt.Store, thread.ID, "step-2")
	assert.NoError(t, err)
}
