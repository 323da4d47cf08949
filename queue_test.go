package memoryruntime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mr "github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage/memstore"
)

func newTestThread(t *testing.T, store mr.Storage) *mr.Thread {
	t.Helper()
	state := mr.NewEmptyState("")
	thread := mr.NewThread(state)
	state.ThreadID = thread.ID
	require.NoError(t, store.SaveState(context.Background(), state))
	require.NoError(t, store.SaveThread(context.Background(), thread))
	return thread
}

func TestEventQueueFIFOOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	thread := newTestThread(t, store)
	q := mr.NewEventQueue(store, thread.ID)

	first, err := q.Push(ctx, mr.Event{Type: mr.EventUserMessage})
	require.NoError(t, err)
	_, err = q.Push(ctx, mr.Event{Type: mr.EventThinking})
	require.NoError(t, err)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	popped, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.EventID, popped.EventID)
}

func TestEventQueuePopEmptyReturnsErrQueueEmpty(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	thread := newTestThread(t, store)
	q := mr.NewEventQueue(store, thread.ID)

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, mr.ErrQueueEmpty)
}

func TestEventQueueClear(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	thread := newTestThread(t, store)
	q := mr.NewEventQueue(store, thread.ID)

	_, err := q.Push(ctx, mr.Event{Type: mr.EventUserMessage})
	require.NoError(t, err)
	require.NoError(t, q.Clear(ctx))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
