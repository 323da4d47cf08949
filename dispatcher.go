package memoryruntime

import (
	"context"

	"github.com/agentcore/memoryruntime/runtimelog"
)

// AcquireStepLock sets thread.CurrentStepID to stepID if no lock is
// currently held, returning ErrStepLockHeld otherwise. It persists the thread record.
func AcquireStepLock(ctx context.Context, store Storage, threadID, stepID string) (*Thread, error) {
	thread, err := store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.CurrentStepID != "" {
		return nil, ErrStepLockHeld
	}
	thread.CurrentStepID = stepID
	if err := store.SaveThread(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// ReleaseStepLock clears thread.CurrentStepID iff it currently matches
// stepID.
func ReleaseStepLock(ctx context.Context, store Storage, threadID, stepID string) error {
	thread, err := store.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	if thread.CurrentStepID != stepID {
		return ErrStepLockMismatch
	}
	thread.CurrentStepID = ""
	return store.SaveThread(ctx, thread)
}

// EventDispatcher is the outer orchestration loop: dispatch
// pushes an event and, in auto mode, drains the queue; manualStep executes
// exactly one pending operation under the step lock.
type EventDispatcher struct {
	store      Storage
	processor  *EventProcessor
	compaction *CompactionManager
	mode       *ExecutionModeController
	observers  *ObserverManager
	logger     runtimelog.Logger
}

// NewEventDispatcher wires an EventDispatcher from its collaborators.
func NewEventDispatcher(store Storage, processor *EventProcessor, compaction *CompactionManager, mode *ExecutionModeController, observers *ObserverManager, logger runtimelog.Logger) *EventDispatcher {
	if logger == nil {
		logger = runtimelog.NullLogger{}
	}
	return &EventDispatcher{
		store:      store,
		processor:  processor,
		compaction: compaction,
		mode:       mode,
		observers:  observers,
		logger:     logger,
	}
}

// noopResult builds a ProcessResult reflecting the thread's current state
// without any processing having occurred, used as "the current {thread,
// state} snapshot" return value.
func (d *EventDispatcher) noopResult(ctx context.Context, threadID string) (*ProcessResult, error) {
	thread, err := d.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	state, err := d.store.GetState(ctx, thread.CurrentStateID)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Thread: thread, State: state, DispatchStrategy: DispatchQueue}, nil
}

// Dispatch pushes event into threadID's persistent queue; in auto mode it
// then drains, otherwise it returns the current snapshot immediately.
func (d *EventDispatcher) Dispatch(ctx context.Context, threadID string, event Event) (*ProcessResult, error) {
	d.observers.Notify(ctx, ObserverEvent{Kind: NotifyEventDispatched, ThreadID: threadID, TriggerEvent: &event})

	qe := NewQueuedEvent(event)
	if err := d.store.PushEvent(ctx, threadID, qe); err != nil {
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}
	d.observers.Notify(ctx, ObserverEvent{Kind: NotifyEventQueued, ThreadID: threadID, TriggerEvent: &event})

	if d.mode.Mode(threadID) == ModeAuto {
		return d.Drain(ctx, threadID)
	}
	return d.noopResult(ctx, threadID)
}

// DispatchAll dispatches each event in order, returning the last result (or
// a no-op snapshot if events is empty).
func (d *EventDispatcher) DispatchAll(ctx context.Context, threadID string, events []Event) (*ProcessResult, error) {
	if len(events) == 0 {
		return d.noopResult(ctx, threadID)
	}
	var last *ProcessResult
	for _, e := range events {
		res, err := d.Dispatch(ctx, threadID, e)
		if err != nil {
			return nil, err
		}
		last = res
	}
	return last, nil
}

// processOneEvent pops the head of the queue and processes it under the
// step lock, releasing the lock in all paths.
func (d *EventDispatcher) processOneEvent(ctx context.Context, threadID string) (*ProcessResult, bool, error) {
	qe, ok, err := d.store.PopEvent(ctx, threadID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	d.observers.Notify(ctx, ObserverEvent{Kind: NotifyEventDequeued, ThreadID: threadID, TriggerEvent: &qe.Event})

	stepID := newStepID()
	if _, err := AcquireStepLock(ctx, d.store, threadID, stepID); err != nil {
		return nil, false, err
	}
	defer func() { _ = ReleaseStepLock(ctx, d.store, threadID, stepID) }()

	result, err := d.processor.Process(ctx, threadID, qe)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// executePendingCompaction runs a previously-recorded pending compaction as
// this tick's operation.
func (d *EventDispatcher) executePendingCompaction(ctx context.Context, threadID string) (*ProcessResult, bool, error) {
	chunks := d.mode.ConsumePendingCompaction(threadID)
	if len(chunks) == 0 {
		return nil, false, nil
	}

	stepID := newStepID()
	thread, err := AcquireStepLock(ctx, d.store, threadID, stepID)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = ReleaseStepLock(ctx, d.store, threadID, stepID) }()

	state, err := d.store.GetState(ctx, thread.CurrentStateID)
	if err != nil {
		return nil, false, err
	}

	d.observers.Notify(ctx, ObserverEvent{Kind: NotifyCompactionStart, ThreadID: threadID, Thread: thread})

	next, event, err := d.compaction.ExecuteCompaction(ctx, state, chunks)
	if err != nil {
		d.logger.Error(ctx, "compaction failed, discarding pending compaction", "threadId", threadID, "error", err)
		d.observers.Notify(ctx, errorEvent(threadID, err))
		if d.mode.Mode(threadID) == ModeStepping {
			return nil, false, err
		}
		return nil, true, nil
	}

	if err := d.store.SaveChunk(ctx, event.Summary); err != nil {
		return nil, false, err
	}
	if err := d.store.SaveState(ctx, next); err != nil {
		return nil, false, err
	}
	thread.CurrentStateID = next.ID
	thread.Touch()

	step := newRunningStep(threadID, Event{Type: "COMPACTION"}, state.ID)
	step.complete(next.ID)

	thread.CompactionHistory = append(thread.CompactionHistory, CompactionRecord{
		StepID:          step.ID,
		PreviousStateID: state.ID,
		ResultStateID:   next.ID,
		TokensBefore:    event.TokensBefore,
		TokensAfter:     event.TokensAfter,
		ChunksReplaced:  event.ChunksReplaced,
		SummaryChunkID:  event.Summary.ID,
		CompactedAt:     nowFunc(),
	})

	if err := d.store.SaveThread(ctx, thread); err != nil {
		return nil, false, err
	}
	_ = d.store.SaveStep(ctx, step)

	d.observers.Notify(ctx, ObserverEvent{
		Kind:           NotifyCompactionEnd,
		ThreadID:       threadID,
		Thread:         thread,
		Step:           step,
		Prev:           state,
		Next:           next,
		TokensBefore:   event.TokensBefore,
		TokensAfter:    event.TokensAfter,
		ChunksReplaced: event.ChunksReplaced,
	})
	d.observers.Notify(ctx, stateChangedEvent(thread, step, state, next))

	return &ProcessResult{Thread: thread, State: next, DispatchStrategy: DispatchQueue}, true, nil
}

// executePendingTruncation runs a previously-recorded pending truncation.
func (d *EventDispatcher) executePendingTruncation(ctx context.Context, threadID string) (*ProcessResult, bool, error) {
	chunkIDs := d.mode.ConsumePendingTruncation(threadID)
	if len(chunkIDs) == 0 {
		return nil, false, nil
	}

	stepID := newStepID()
	thread, err := AcquireStepLock(ctx, d.store, threadID, stepID)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = ReleaseStepLock(ctx, d.store, threadID, stepID) }()

	state, err := d.store.GetState(ctx, thread.CurrentStateID)
	if err != nil {
		return nil, false, err
	}

	next, err := d.compaction.ExecuteTruncation(state, chunkIDs)
	if err != nil {
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, false, err
	}
	if err := d.store.SaveState(ctx, next); err != nil {
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, false, err
	}
	thread.CurrentStateID = next.ID
	thread.Touch()
	if err := d.store.SaveThread(ctx, thread); err != nil {
		d.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, false, err
	}

	step := newRunningStep(threadID, Event{Type: "TRUNCATION"}, state.ID)
	step.complete(next.ID)
	_ = d.store.SaveStep(ctx, step)

	d.observers.Notify(ctx, stateChangedEvent(thread, step, state, next))

	return &ProcessResult{Thread: thread, State: next, DispatchStrategy: DispatchQueue}, true, nil
}

// ManualStep requires stepping mode, acquires the step lock, and executes
// exactly one of (priority order) pending truncation, pending compaction,
// or one queued event.
func (d *EventDispatcher) ManualStep(ctx context.Context, threadID string) (*ProcessResult, error) {
	if d.mode.Mode(threadID) != ModeStepping {
		return nil, ErrNotStepping
	}

	if res, did, err := d.executePendingTruncation(ctx, threadID); err != nil {
		return nil, err
	} else if did {
		return res, nil
	}

	if res, did, err := d.executePendingCompaction(ctx, threadID); err != nil {
		return nil, err
	} else if did {
		return res, nil
	}

	res, did, err := d.processOneEvent(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !did {
		return d.noopResult(ctx, threadID)
	}
	return res, nil
}

// Drain repeatedly processes budget-pressure compactions and queued events
// until the queue is empty, the mode changes to stepping, or an event
// requests termination. After a compaction tick (successful or failed) the
// next tick processes a queued event rather than compacting again.
func (d *EventDispatcher) Drain(ctx context.Context, threadID string) (*ProcessResult, error) {
	var last *ProcessResult
	compacted := false

	for {
		if d.mode.Mode(threadID) == ModeStepping {
			break
		}

		thread, err := d.store.GetThread(ctx, threadID)
		if err != nil {
			return nil, err
		}
		state, err := d.store.GetState(ctx, thread.CurrentStateID)
		if err != nil {
			return nil, err
		}
		if d.compaction != nil && !compacted {
			check := d.compaction.CheckTokenUsage(state)
			if check.Classification == UsageForceCompaction && len(check.ChunksToCompact) > 0 {
				d.mode.SetPendingCompaction(threadID, check.ChunksToCompact)
				res, did, err := d.executePendingCompaction(ctx, threadID)
				if err != nil {
					return nil, err
				}
				if did {
					if res != nil {
						last = res
					}
					compacted = true
					continue
				}
			}
		}
		compacted = false

		res, did, err := d.processOneEvent(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if !did {
			break
		}
		last = res
		if res.ShouldTerminate {
			break
		}
	}

	if last == nil {
		return d.noopResult(ctx, threadID)
	}
	return last, nil
}
