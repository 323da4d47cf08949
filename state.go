package memoryruntime

// StateMetadata records how a State came to exist.
type StateMetadata struct {
	PreviousStateID string         `json:"previousStateId,omitempty"`
	SourceOperation string         `json:"sourceOperation,omitempty"`
	Provenance      map[string]any `json:"provenance,omitempty"`
}

// State is an immutable snapshot of a thread's memory.
//
// ChunkIDs lists only the top-level chunks; a chunk added as a child via
// ADD_CHILD lives in Chunks and is reachable through its parent's ChildIDs,
// not as a separate ChunkIDs entry.
//
// Invariants:
//   - every id in ChunkIDs is present in Chunks
//   - deleting a chunk id removes it from both ChunkIDs and Chunks
//   - no cycles in chunk ParentIDs within a state's lineage
//   - states form a tree rooted at the thread's initial state, linked by
//     Metadata.PreviousStateID
type State struct {
	ID                      string           `json:"id"`
	ThreadID                string           `json:"threadId"`
	ChunkIDs                []string         `json:"chunkIds"`
	Chunks                  map[string]*Chunk `json:"chunks"`
	Metadata                StateMetadata    `json:"metadata"`
	NeedLLMContinueResponse bool             `json:"needLLMContinueResponse"`
}

// NewEmptyState constructs an empty initial state for a new thread.
func NewEmptyState(threadID string) *State {
	return &State{
		ID:       newStateID(),
		ThreadID: threadID,
		ChunkIDs: []string{},
		Chunks:   map[string]*Chunk{},
	}
}

// Chunk looks up a chunk by id within this state.
func (s *State) Chunk(id string) (*Chunk, bool) {
	c, ok := s.Chunks[id]
	return c, ok
}

// OrderedChunks returns the state's chunks in ChunkIDs order, skipping any
// id that is (erroneously) absent from Chunks rather than panicking.
func (s *State) OrderedChunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.ChunkIDs))
	for _, id := range s.ChunkIDs {
		if c, ok := s.Chunks[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Copy returns a deep copy of the state, used by snapshot/fork code paths
// that must not alias into a state already held by the orchestrator.
func (s *State) Copy() *State {
	chunkIDs := append([]string(nil), s.ChunkIDs...)
	chunks := make(map[string]*Chunk, len(s.Chunks))
	for id, c := range s.Chunks {
		chunks[id] = c.Copy()
	}
	provenance := make(map[string]any, len(s.Metadata.Provenance))
	for k, v := range s.Metadata.Provenance {
		provenance[k] = v
	}
	return &State{
		ID:       s.ID,
		ThreadID: s.ThreadID,
		ChunkIDs: chunkIDs,
		Chunks:   chunks,
		Metadata: StateMetadata{
			PreviousStateID: s.Metadata.PreviousStateID,
			SourceOperation: s.Metadata.SourceOperation,
			Provenance:      provenance,
		},
		NeedLLMContinueResponse: s.NeedLLMContinueResponse,
	}
}
