package memoryruntime

import "context"

// LifecycleReducer handles TASK_COMPLETED, TASK_ABANDONED, and
// TASK_TERMINATED events, producing OUTPUT chunks with CRITICAL retention.
// These events default to the TERMINATE dispatch strategy
// (event.go's lifecycleTerminatingEvents), so the orchestrator stops the
// drain loop after applying the resulting state.
type LifecycleReducer struct{}

// NewLifecycleReducer constructs the bundled lifecycle reducer.
func NewLifecycleReducer() *LifecycleReducer {
	return &LifecycleReducer{}
}

func (r *LifecycleReducer) Accepts(t EventType) bool {
	switch t {
	case EventTaskCompleted, EventTaskAbandoned, EventTaskTerminated:
		return true
	default:
		return false
	}
}

func (r *LifecycleReducer) Reduce(_ context.Context, _ *State, qe QueuedEvent) (ReducerResult, error) {
	content := &StructuredContent{Fields: map[string]any{
		"outcome": string(qe.Event.Type),
		"result":  firstNonNil(qe.Event, "result"),
	}}
	output := NewChunk(ChunkTypeOutput, content, WithRetention(RetentionCritical), WithSourceOperation(qe.EventID))
	return ReducerResult{Operations: []Operation{AddOp(output)}, Chunks: []*Chunk{output}}, nil
}
