package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage"
)

func TestStoreThreadRoundTripIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := New()

	state := memoryruntime.NewEmptyState("")
	thread := memoryruntime.NewThread(state)
	require.NoError(t, store.SaveThread(ctx, thread))

	// Mutating the caller's copy after save must not affect the store.
	thread.Tools = append(thread.Tools, "leaked")

	got, err := store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tools)

	// Mutating the returned copy must not affect the store either.
	got.Tools = append(got.Tools, "leaked-again")
	got2, err := store.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, got2.Tools)
}

func TestStoreDeleteThreadCascades(t *testing.T) {
	ctx := context.Background()
	store := New()

	threadID := "thread_x"
	state := memoryruntime.NewEmptyState(threadID)
	require.NoError(t, store.SaveState(ctx, state))
	step := &memoryruntime.Step{ID: "step_1", ThreadID: threadID, Status: memoryruntime.StepRunning}
	require.NoError(t, store.SaveStep(ctx, step))
	thread := memoryruntime.NewThread(state)
	thread.ID = threadID
	require.NoError(t, store.SaveThread(ctx, thread))

	require.NoError(t, store.DeleteThread(ctx, threadID))

	_, err := store.GetThread(ctx, threadID)
	assert.ErrorIs(t, err, storage.ErrThreadNotFound)

	states, err := store.GetStatesByThread(ctx, threadID)
	require.NoError(t, err)
	assert.Empty(t, states)

	steps, err := store.GetStepsByThread(ctx, threadID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestStoreChunkNotFound(t *testing.T) {
	store := New()
	_, err := store.GetChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrChunkNotFound)
}

func TestStoreEventQueueFIFO(t *testing.T) {
	ctx := context.Background()
	store := New()

	state := memoryruntime.NewEmptyState("")
	thread := memoryruntime.NewThread(state)
	require.NoError(t, store.SaveThread(ctx, thread))

	first := memoryruntime.NewQueuedEvent(memoryruntime.Event{Type: memoryruntime.EventUserMessage})
	second := memoryruntime.NewQueuedEvent(memoryruntime.Event{Type: memoryruntime.EventThinking})
	require.NoError(t, store.PushEvent(ctx, thread.ID, first))
	require.NoError(t, store.PushEvent(ctx, thread.ID, second))

	n, err := store.GetEventQueueLength(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	popped, ok, err := store.PopEvent(ctx, thread.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.EventID, popped.EventID)

	popped, ok, err = store.PopEvent(ctx, thread.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.EventID, popped.EventID)

	_, ok, err = store.PopEvent(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListThreadsSorted(t *testing.T) {
	ctx := context.Background()
	store := New()

	for _, id := range []string{"thread_b", "thread_a", "thread_c"} {
		state := memoryruntime.NewEmptyState(id)
		thread := memoryruntime.NewThread(state)
		thread.ID = id
		require.NoError(t, store.SaveThread(ctx, thread))
	}

	ids, err := store.ListThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"thread_a", "thread_b", "thread_c"}, ids)
}

var _ storage.Storage = (*Store)(nil)
