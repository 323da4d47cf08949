package memoryruntime

import "context"

// Snapshot bundles a thread's states plus the union of their referenced
// chunks at a moment in time. It is ephemeral unless the
// caller persists the returned value.
type Snapshot struct {
	ID          string   `json:"id"`
	ThreadID    string   `json:"threadId"`
	StateID     string   `json:"stateId"`
	CreatedAt   string   `json:"createdAt"`
	Description string   `json:"description,omitempty"`
	States      []*State `json:"states"`
	Chunks      []*Chunk `json:"chunks"`
}

// CreateSnapshot collects every state in threadID's history plus the union
// of their referenced chunk ids, resolved from store.
func CreateSnapshot(ctx context.Context, store Storage, threadID, description string) (*Snapshot, error) {
	thread, err := store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	states, err := store.GetStatesByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	chunkIDSet := make(map[string]bool)
	for _, s := range states {
		for id := range s.Chunks {
			chunkIDSet[id] = true
		}
	}
	chunkIDs := make([]string, 0, len(chunkIDSet))
	for id := range chunkIDSet {
		chunkIDs = append(chunkIDs, id)
	}
	chunks, err := store.GetChunks(ctx, chunkIDs)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:          newSnapshotID(),
		ThreadID:    threadID,
		StateID:     thread.CurrentStateID,
		CreatedAt:   nowFunc().Format("2006-01-02T15:04:05.999999999Z07:00"),
		Description: description,
		States:      states,
		Chunks:      chunks,
	}, nil
}

// RestoreSnapshot deletes the thread named by snapshot.ThreadID if present,
// then creates a new thread initialized with the chunks present in the
// snapshot's last state, recording provenance restoredFrom. The new
// thread's id is NOT forced to equal the original: ids are never
// reassigned once issued, so restore always yields a fresh thread identity.
func RestoreSnapshot(ctx context.Context, store Storage, modeCtrl *ExecutionModeController, snapshot *Snapshot) (*Thread, *State, error) {
	if _, err := store.GetThread(ctx, snapshot.ThreadID); err == nil {
		if err := store.DeleteThread(ctx, snapshot.ThreadID); err != nil {
			return nil, nil, err
		}
		if modeCtrl != nil {
			modeCtrl.Forget(snapshot.ThreadID)
		}
	}

	var lastState *State
	for _, s := range snapshot.States {
		if s.ID == snapshot.StateID {
			lastState = s
			break
		}
	}
	if lastState == nil && len(snapshot.States) > 0 {
		lastState = snapshot.States[len(snapshot.States)-1]
	}

	newState := NewEmptyState("")
	if lastState != nil {
		newState.ChunkIDs = append([]string(nil), lastState.ChunkIDs...)
		newState.Chunks = make(map[string]*Chunk, len(lastState.Chunks))
		for id, c := range lastState.Chunks {
			newState.Chunks[id] = c.Copy()
		}
		newState.NeedLLMContinueResponse = lastState.NeedLLMContinueResponse
	}
	newState.Metadata = StateMetadata{
		SourceOperation: "restoreSnapshot",
		Provenance: map[string]any{
			"restoredFrom": map[string]any{
				"snapshotId": snapshot.ID,
				"threadId":   snapshot.ThreadID,
				"stateId":    snapshot.StateID,
			},
		},
	}

	thread := NewThread(newState)
	newState.ThreadID = thread.ID

	for _, c := range newState.Chunks {
		if err := store.SaveChunk(ctx, c); err != nil {
			return nil, nil, err
		}
	}
	if err := store.SaveState(ctx, newState); err != nil {
		return nil, nil, err
	}
	if err := store.SaveThread(ctx, thread); err != nil {
		return nil, nil, err
	}
	return thread, newState, nil
}
