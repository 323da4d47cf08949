package memoryruntime

import "context"

// MemoryControlReducer handles MEMORY_MARK_CRITICAL and MEMORY_FORGET
// events: the former flips a chunk's retention strategy to CRITICAL via
// UPDATE, the latter DELETEs the chunk outright.
type MemoryControlReducer struct{}

// NewMemoryControlReducer constructs the bundled memory-control reducer.
func NewMemoryControlReducer() *MemoryControlReducer {
	return &MemoryControlReducer{}
}

func (r *MemoryControlReducer) Accepts(t EventType) bool {
	switch t {
	case EventMemoryMarkCrit, EventMemoryForget:
		return true
	default:
		return false
	}
}

func (r *MemoryControlReducer) Reduce(_ context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
	chunkID := qe.Event.PayloadString("chunkId")
	target, ok := state.Chunk(chunkID)
	if !ok {
		// Unknown chunk id: no-op. An event the registry can't act on
		// yields an empty result rather than an error.
		return ReducerResult{}, nil
	}

	switch qe.Event.Type {
	case EventMemoryMarkCrit:
		updated := DeriveChunk(target, target.Content.Copy(), WithRetention(RetentionCritical))
		return ReducerResult{
			Operations: []Operation{UpdateOp(chunkID, updated)},
			Chunks:     []*Chunk{updated},
		}, nil

	case EventMemoryForget:
		return ReducerResult{Operations: []Operation{DeleteOp(chunkID)}}, nil

	default:
		return ReducerResult{}, nil
	}
}
