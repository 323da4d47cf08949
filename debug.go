package memoryruntime

import (
	"context"
	"sync"
)

// DebugController provides pause/resume, event injection, forking, chunk
// editing, snapshotting, and single-step introspection over a runtime
// built from the same Storage/dispatcher/mode collaborators. Pause/resume
// are tracked purely in-process: actual blocking comes from the mode flag
// (stepping) and the step lock, not from this controller itself.
type DebugController struct {
	store      Storage
	dispatcher *EventDispatcher
	mode       *ExecutionModeController
	observers  *ObserverManager

	mu     sync.Mutex
	paused map[string]bool
}

// NewDebugController wires a DebugController from its collaborators.
func NewDebugController(store Storage, dispatcher *EventDispatcher, mode *ExecutionModeController, observers *ObserverManager) *DebugController {
	return &DebugController{
		store:      store,
		dispatcher: dispatcher,
		mode:       mode,
		observers:  observers,
		paused:     make(map[string]bool),
	}
}

// Pause marks threadID as paused.
func (d *DebugController) Pause(threadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused[threadID] = true
}

// Resume clears threadID's paused flag.
func (d *DebugController) Resume(threadID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.paused, threadID)
}

// IsPaused reports whether threadID is currently paused.
func (d *DebugController) IsPaused(threadID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused[threadID]
}

// InjectEvent is a passthrough to Dispatch.
func (d *DebugController) InjectEvent(ctx context.Context, threadID string, event Event) (*ProcessResult, error) {
	return d.dispatcher.Dispatch(ctx, threadID, event)
}

// ForkFromState loads stateID, materializes its chunks, and creates a new
// thread seeded with those chunks, recording custom.forkedFrom. Mutations
// to the source thread after forking never alter the fork, because states
// and chunks are immutable and the fork owns deep copies.
func (d *DebugController) ForkFromState(ctx context.Context, threadID, stateID string) (*Thread, *State, error) {
	source, err := d.store.GetState(ctx, stateID)
	if err != nil {
		return nil, nil, err
	}

	forkedState := NewEmptyState("")
	forkedState.ChunkIDs = append([]string(nil), source.ChunkIDs...)
	forkedState.Chunks = make(map[string]*Chunk, len(source.Chunks))
	for id, c := range source.Chunks {
		forkedState.Chunks[id] = c.Copy()
	}
	forkedState.NeedLLMContinueResponse = source.NeedLLMContinueResponse
	forkedState.Metadata = StateMetadata{
		SourceOperation: "forkFromState",
		Provenance: map[string]any{
			"forkedFrom": map[string]any{
				"threadId": threadID,
				"stateId":  stateID,
			},
		},
	}

	forkedThread := NewThread(forkedState)
	forkedState.ThreadID = forkedThread.ID
	forkedThread.ParentThreadID = threadID
	forkedThread.Metadata.Custom = map[string]any{
		"forkedFrom": map[string]any{
			"threadId": threadID,
			"stateId":  stateID,
		},
	}

	for _, c := range forkedState.Chunks {
		if err := d.store.SaveChunk(ctx, c); err != nil {
			return nil, nil, err
		}
	}
	if err := d.store.SaveState(ctx, forkedState); err != nil {
		return nil, nil, err
	}
	if err := d.store.SaveThread(ctx, forkedThread); err != nil {
		return nil, nil, err
	}

	if parent, err := d.store.GetThread(ctx, threadID); err == nil {
		parent.ChildThreadIDs = append(parent.ChildThreadIDs, forkedThread.ID)
		_ = d.store.SaveThread(ctx, parent)
	}

	return forkedThread, forkedState, nil
}

// EditChunk locates the original chunk in stateID, derives a new chunk
// with ParentIDs=[original.id] and updated content, and emits an UPDATE
// operation through the same acquire-step-lock/transition/persist/notify
// pipeline every other state-mutating path uses, so an edit can never race
// a concurrent auto-mode Drain on the same thread. It bypasses the reducer
// registry (there is no event driving it, only an operator decision) but
// not the step lock, Step ledger, or observer notification.
func (d *DebugController) EditChunk(ctx context.Context, threadID, stateID, chunkID string, newContent Content) (*State, error) {
	stepID := newStepID()
	thread, err := AcquireStepLock(ctx, d.store, threadID, stepID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ReleaseStepLock(ctx, d.store, threadID, stepID) }()

	state, err := d.store.GetState(ctx, stateID)
	if err != nil {
		return nil, err
	}
	original, ok := state.Chunk(chunkID)
	if !ok {
		return nil, &InvariantError{Op: "editChunk", Detail: "chunk not present in state", ChunkID: chunkID}
	}

	step := newRunningStep(threadID, Event{Type: "CHUNK_EDIT", Payload: map[string]any{"chunkId": chunkID}}, state.ID)
	if err := d.store.SaveStep(ctx, step); err != nil {
		return nil, err
	}

	newChunk := DeriveChunk(original, newContent)
	op := UpdateOp(chunkID, newChunk)

	next, err := ApplyOperations(state, []Operation{op}, []*Chunk{newChunk}, "editChunk")
	if err != nil {
		step.fail(err)
		_ = d.store.UpdateStep(ctx, step)
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}
	next.Metadata.Provenance = map[string]any{
		"source":  "editChunk",
		"chunkId": chunkID,
	}

	if err := d.store.SaveChunk(ctx, newChunk); err != nil {
		step.fail(err)
		_ = d.store.UpdateStep(ctx, step)
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}
	if err := d.store.SaveState(ctx, next); err != nil {
		step.fail(err)
		_ = d.store.UpdateStep(ctx, step)
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}

	thread.CurrentStateID = next.ID
	thread.Touch()
	if err := d.store.SaveThread(ctx, thread); err != nil {
		step.fail(err)
		_ = d.store.UpdateStep(ctx, step)
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}

	step.complete(next.ID)
	if err := d.store.UpdateStep(ctx, step); err != nil {
		return nil, err
	}

	d.observers.Notify(ctx, stateChangedEvent(thread, step, state, next))

	return next, nil
}

// CreateSnapshot delegates to the package-level CreateSnapshot helper.
func (d *DebugController) CreateSnapshot(ctx context.Context, threadID, description string) (*Snapshot, error) {
	return CreateSnapshot(ctx, d.store, threadID, description)
}

// RestoreSnapshot delegates to the package-level RestoreSnapshot helper.
func (d *DebugController) RestoreSnapshot(ctx context.Context, snapshot *Snapshot) (*Thread, *State, error) {
	return RestoreSnapshot(ctx, d.store, d.mode, snapshot)
}

// Step proxies to the orchestrator's ManualStep.
func (d *DebugController) Step(ctx context.Context, threadID string) (*ProcessResult, error) {
	return d.dispatcher.ManualStep(ctx, threadID)
}

// GetExecutionMode proxies to the mode controller.
func (d *DebugController) GetExecutionMode(threadID string) ExecutionMode {
	return d.mode.Mode(threadID)
}

// SetExecutionMode proxies to the mode controller.
func (d *DebugController) SetExecutionMode(threadID string, mode ExecutionMode) {
	d.mode.SetMode(threadID, mode)
}

// HasPendingCompaction introspects the mode controller's pending-compaction
// slot without consuming it.
func (d *DebugController) HasPendingCompaction(threadID string) bool {
	return d.mode.HasPendingCompaction(threadID)
}

// HasPendingTruncation introspects the mode controller's
// pending-truncation slot without consuming it.
func (d *DebugController) HasPendingTruncation(threadID string) bool {
	return d.mode.HasPendingTruncation(threadID)
}

// GetQueuedEventCount returns the number of events queued for threadID.
func (d *DebugController) GetQueuedEventCount(ctx context.Context, threadID string) (int, error) {
	return d.store.GetEventQueueLength(ctx, threadID)
}

// PeekNextEvent returns the head of threadID's queue without consuming it.
func (d *DebugController) PeekNextEvent(ctx context.Context, threadID string) (QueuedEvent, bool, error) {
	qe, ok, err := d.store.PeekEvent(ctx, threadID)
	if err != nil {
		return QueuedEvent{}, false, err
	}
	return qe, ok, nil
}
