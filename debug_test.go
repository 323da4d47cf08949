package memoryruntime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mr "github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage/memstore"
)

func TestDebugControllerPauseResume(t *testing.T) {
	rt := newTestRuntime()
	rt.Debug.Pause("t1")
	assert.True(t, rt.Debug.IsPaused("t1"))
	rt.Debug.Resume("t1")
	assert.False(t, rt.Debug.IsPaused("t1"))
}

func TestDebugControllerForkFromStateIsIndependent(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()

	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "original"},
	})
	require.NoError(t, err)

	forkedThread, forkedState, err := rt.Debug.ForkFromState(ctx, thread.ID, result.State.ID)
	require.NoError(t, err)
	assert.NotEqual(t, thread.ID, forkedThread.ID)
	assert.Equal(t, thread.ID, forkedThread.ParentThreadID)
	assert.Equal(t, result.State.ChunkIDs, forkedState.ChunkIDs)

	// Further events on the original thread must not affect the fork.
	_, err = rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "after fork"},
	})
	require.NoError(t, err)

	forkCurrent, err := rt.Store.GetState(ctx, forkedThread.CurrentStateID)
	require.NoError(t, err)
	assert.Equal(t, forkedState.ChunkIDs, forkCurrent.ChunkIDs)

	parent, err := rt.Store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Contains(t, parent.ChildThreadIDs, forkedThread.ID)
}

func TestDebugControllerEditChunkProducesDerivedState(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()

	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	result, err := rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "original text"},
	})
	require.NoError(t, err)

	container, ok := result.State.Chunk(result.State.ChunkIDs[0])
	require.True(t, ok)
	leafID := container.ChildIDs[0]

	next, err := rt.Debug.EditChunk(ctx, thread.ID, result.State.ID, leafID, &mr.TextContent{Text: "edited text"})
	require.NoError(t, err)
	assert.NotEqual(t, result.State.ID, next.ID)

	editedContainer, ok := next.Chunk(result.State.ChunkIDs[0])
	require.True(t, ok)
	var found bool
	for _, id := range editedContainer.ChildIDs {
		if id == leafID {
			found = true
		}
	}
	assert.False(t, found, "edited chunk must replace the old id, not retain it")
}

func TestDebugControllerSnapshotCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime()

	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	_, err = rt.Dispatcher.Dispatch(ctx, thread.ID, mr.Event{
		Type:    mr.EventUserMessage,
		Payload: map[string]any{"content": "hi"},
	})
	require.NoError(t, err)

	snap, err := rt.Debug.CreateSnapshot(ctx, thread.ID, "checkpoint")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint", snap.Description)
	assert.NotEmpty(t, snap.States)

	restoredThread, restoredState, err := rt.Debug.RestoreSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.NotEqual(t, thread.ID, restoredThread.ID, "restore always yields a fresh thread identity")
	assert.NotEmpty(t, restoredState.ChunkIDs)
}

func TestDebugControllerQueueIntrospection(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	rt := mr.NewRuntime(store, nil)

	thread, _, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	rt.Debug.SetExecutionMode(thread.ID, mr.ModeStepping)

	_, err = rt.Debug.InjectEvent(ctx, thread.ID, mr.Event{Type: mr.EventUserMessage})
	require.NoError(t, err)

	n, err := rt.Debug.GetQueuedEventCount(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	qe, ok, err := rt.Debug.PeekNextEvent(ctx, thread.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mr.EventUserMessage, qe.Event.Type)

	assert.Equal(t, mr.ModeStepping, rt.Debug.GetExecutionMode(thread.ID))
}
