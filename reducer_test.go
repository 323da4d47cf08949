package memoryruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReducerRegistryConcatenatesAllAcceptingReducersInOrder(t *testing.T) {
	reg := NewReducerRegistry()

	first := NewReducerFunc(func(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
		return ReducerResult{Operations: []Operation{{Type: OpAdd, ChunkID: "from-first"}}}, nil
	}, EventUserMessage)
	second := NewReducerFunc(func(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
		return ReducerResult{Operations: []Operation{{Type: OpAdd, ChunkID: "from-second"}}}, nil
	}, EventUserMessage)

	reg.Register(first)
	reg.Register(second)

	result, err := reg.Reduce(context.Background(), NewEmptyState("t1"), QueuedEvent{Event: Event{Type: EventUserMessage}})
	require.NoError(t, err)
	require.Len(t, result.Operations, 2)
	assert.Equal(t, "from-first", result.Operations[0].ChunkID)
	assert.Equal(t, "from-second", result.Operations[1].ChunkID)
}

func TestReducerRegistryUnhandledEventIsEmptyNoOp(t *testing.T) {
	reg := NewReducerRegistry()
	reg.Register(NewReducerFunc(func(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
		return ReducerResult{Operations: []Operation{{Type: OpAdd}}}, nil
	}, EventUserMessage))

	result, err := reg.Reduce(context.Background(), NewEmptyState("t1"), QueuedEvent{Event: Event{Type: EventThinking}})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestReducerRegistryResolveReturnsNilWhenUnhandled(t *testing.T) {
	reg := NewReducerRegistry()
	assert.Nil(t, reg.Resolve(EventUserMessage))
}
