package memoryruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationReducerCreatesContainerOnFirstEvent(t *testing.T) {
	r := NewConversationReducer()
	state := NewEmptyState("t1")
	qe := QueuedEvent{EventID: "evt1", Event: Event{Type: EventUserMessage, Payload: map[string]any{"content": "hi"}}}

	result, err := r.Reduce(context.Background(), state, qe)
	require.NoError(t, err)
	require.Len(t, result.Operations, 2)
	assert.Equal(t, OpAdd, result.Operations[0].Type)
	assert.Equal(t, OpAddChild, result.Operations[1].Type)
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, ChunkTypeWorkingHistory, result.Chunks[0].Type)
	assert.Equal(t, ChunkTypeUserMessage, result.Chunks[1].Type)
}

func TestConversationReducerAppendsToExistingContainer(t *testing.T) {
	r := NewConversationReducer()
	state := NewEmptyState("t1")

	first, err := r.Reduce(context.Background(), state, QueuedEvent{EventID: "e1", Event: Event{Type: EventUserMessage, Payload: map[string]any{"content": "hi"}}})
	require.NoError(t, err)
	next, err := ApplyOperations(state, first.Operations, first.Chunks, "reducer")
	require.NoError(t, err)

	second, err := r.Reduce(context.Background(), next, QueuedEvent{EventID: "e2", Event: Event{Type: EventLLMTextResponse, Payload: map[string]any{"content": "hello back"}}})
	require.NoError(t, err)
	require.Len(t, second.Operations, 1)
	assert.Equal(t, OpAddChild, second.Operations[0].Type)
}

func TestConversationReducerAcceptsOnlyKnownTypes(t *testing.T) {
	r := NewConversationReducer()
	assert.True(t, r.Accepts(EventUserMessage))
	assert.True(t, r.Accepts(EventLLMToolCall))
	assert.False(t, r.Accepts(EventTaskCompleted))
}

func TestLifecycleReducerProducesCriticalOutputChunk(t *testing.T) {
	r := NewLifecycleReducer()
	qe := QueuedEvent{EventID: "e1", Event: Event{Type: EventTaskCompleted, Payload: map[string]any{"result": "done"}}}

	result, err := r.Reduce(context.Background(), NewEmptyState("t1"), qe)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, ChunkTypeOutput, result.Chunks[0].Type)
	assert.Equal(t, RetentionCritical, result.Chunks[0].RetentionStrategy)
}

func TestMemoryControlReducerMarkCriticalUpdatesRetention(t *testing.T) {
	r := NewMemoryControlReducer()
	state := NewEmptyState("t1")
	c := NewChunk(ChunkTypeWorkingHistory, &TextContent{Text: "x"}, WithRetention(RetentionCompressible))
	state.Chunks[c.ID] = c
	state.ChunkIDs = []string{c.ID}

	qe := QueuedEvent{Event: Event{Type: EventMemoryMarkCrit, Payload: map[string]any{"chunkId": c.ID}}}
	result, err := r.Reduce(context.Background(), state, qe)
	require.NoError(t, err)
	require.Len(t, result.Operations, 1)
	assert.Equal(t, OpUpdate, result.Operations[0].Type)
	assert.Equal(t, RetentionCritical, result.Chunks[0].RetentionStrategy)
}

func TestMemoryControlReducerForgetDeletes(t *testing.T) {
	r := NewMemoryControlReducer()
	state := NewEmptyState("t1")
	c := NewChunk(ChunkTypeWorkingHistory, &TextContent{Text: "x"})
	state.Chunks[c.ID] = c
	state.ChunkIDs = []string{c.ID}

	qe := QueuedEvent{Event: Event{Type: EventMemoryForget, Payload: map[string]any{"chunkId": c.ID}}}
	result, err := r.Reduce(context.Background(), state, qe)
	require.NoError(t, err)
	require.Len(t, result.Operations, 1)
	assert.Equal(t, OpDelete, result.Operations[0].Type)
	assert.Equal(t, c.ID, result.Operations[0].ChunkID)
}

func TestMemoryControlReducerUnknownChunkIsNoOp(t *testing.T) {
	r := NewMemoryControlReducer()
	qe := QueuedEvent{Event: Event{Type: EventMemoryForget, Payload: map[string]any{"chunkId": "missing"}}}
	result, err := r.Reduce(context.Background(), NewEmptyState("t1"), qe)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
