package memoryruntime

import (
	"context"
	"time"

	"github.com/agentcore/memoryruntime/runtimelog"
)

// ProcessResult is returned by EventProcessor.Process.
type ProcessResult struct {
	Thread           *Thread
	State            *State
	AddedChunks      []*Chunk
	RemovedChunkIDs  []string
	ShouldTerminate  bool
	ShouldInterrupt  bool
	DispatchStrategy DispatchStrategy
}

// SubagentSpawnObserver is notified separately when a reducer produces a
// sub-agent spawn, with the new state id as the parent anchor.
type SubagentSpawnObserver interface {
	OnSubagentSpawn(ctx context.Context, thread *Thread, parentStateID string, qe QueuedEvent)
}

// EventProcessor is the single-event core of the runtime: it
// loads state, resolves a reducer, applies the transition, notifies
// observers, checks budget pressure, and records a Step. It holds no
// per-thread mutable state itself; all of that lives in Storage and the
// ExecutionModeController.
type EventProcessor struct {
	store      Storage
	reducers   *ReducerRegistry
	observers  *ObserverManager
	compaction *CompactionManager
	mode       *ExecutionModeController
	subagent   SubagentSpawnObserver
	logger     runtimelog.Logger
}

// NewEventProcessor wires together the collaborators an EventProcessor
// needs. subagent may be nil if sub-agent spawn notification isn't used.
func NewEventProcessor(store Storage, reducers *ReducerRegistry, observers *ObserverManager, compaction *CompactionManager, mode *ExecutionModeController, subagent SubagentSpawnObserver, logger runtimelog.Logger) *EventProcessor {
	if logger == nil {
		logger = runtimelog.NullLogger{}
	}
	return &EventProcessor{
		store:      store,
		reducers:   reducers,
		observers:  observers,
		compaction: compaction,
		mode:       mode,
		subagent:   subagent,
		logger:     logger,
	}
}

// Process runs exactly one event against threadID's current state: resolve
// dispatch strategy, reduce, transition, notify observers, check token
// pressure, and record a Step for the whole run.
func (p *EventProcessor) Process(ctx context.Context, threadID string, qe QueuedEvent) (*ProcessResult, error) {
	thread, err := p.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	prevState, err := p.store.GetState(ctx, thread.CurrentStateID)
	if err != nil {
		return nil, err
	}

	step := newRunningStep(threadID, qe.Event, prevState.ID)
	if err := p.store.SaveStep(ctx, step); err != nil {
		return nil, err
	}

	strategy := qe.Event.ResolvedDispatchStrategy()

	reduceStart := nowFunc()
	result, reduceErr := p.reducers.Reduce(ctx, prevState, qe)
	reduceDuration := nowFunc().Sub(reduceStart)
	if reduceErr != nil {
		wrapped := &ReducerError{Reducer: string(qe.Event.Type), Err: reduceErr}
		step.fail(wrapped)
		_ = p.store.UpdateStep(ctx, step)
		p.observers.Notify(ctx, errorEvent(threadID, wrapped))
		return nil, wrapped
	}
	p.observers.Notify(ctx, ObserverEvent{
		Kind:         NotifyReducerExecuted,
		ThreadID:     threadID,
		Thread:       thread,
		Step:         step,
		TriggerEvent: &qe.Event,
		Duration:     reduceDuration,
	})

	if result.Empty() {
		step.complete(prevState.ID)
		if err := p.store.UpdateStep(ctx, step); err != nil {
			return nil, err
		}
		return &ProcessResult{
			Thread:           thread,
			State:            prevState,
			ShouldTerminate:  strategy == DispatchTerminate,
			ShouldInterrupt:  strategy == DispatchInterrupt,
			DispatchStrategy: strategy,
		}, nil
	}

	for _, c := range result.Chunks {
		if err := p.store.SaveChunk(ctx, c); err != nil {
			step.fail(err)
			_ = p.store.UpdateStep(ctx, step)
			p.observers.Notify(ctx, errorEvent(threadID, err))
			return nil, err
		}
	}

	successor, err := ApplyOperations(prevState, result.Operations, result.Chunks, "reducer")
	if err != nil {
		step.fail(err)
		_ = p.store.UpdateStep(ctx, step)
		p.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}
	successor.Metadata.Provenance = eventProvenance(qe, step.ID)
	successor.NeedLLMContinueResponse = resolveLLMResponse(prevState.NeedLLMContinueResponse, qe.Event.LLMResponseRequirement)

	if err := p.store.SaveState(ctx, successor); err != nil {
		step.fail(err)
		_ = p.store.UpdateStep(ctx, step)
		p.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}

	thread.CurrentStateID = successor.ID
	thread.Touch()

	if p.subagent != nil && qe.Event.Type == EventSubagentSpawn {
		p.subagent.OnSubagentSpawn(ctx, thread, successor.ID, qe)
		p.observers.Notify(ctx, ObserverEvent{
			Kind:         NotifySubagentSpawned,
			ThreadID:     threadID,
			Thread:       thread,
			Step:         step,
			TriggerEvent: &qe.Event,
			SubagentName: qe.Event.PayloadString("subagentName"),
		})
	}
	if qe.Event.Type == EventSubagentResult {
		p.observers.Notify(ctx, ObserverEvent{
			Kind:         NotifySubagentResulted,
			ThreadID:     threadID,
			Thread:       thread,
			Step:         step,
			TriggerEvent: &qe.Event,
			SubagentName: qe.Event.PayloadString("subagentName"),
		})
	}

	if err := p.store.SaveThread(ctx, thread); err != nil {
		step.fail(err)
		_ = p.store.UpdateStep(ctx, step)
		p.observers.Notify(ctx, errorEvent(threadID, err))
		return nil, err
	}

	p.observers.Notify(ctx, stateChangedEvent(thread, step, prevState, successor))

	if p.compaction != nil {
		check := p.compaction.CheckTokenUsage(successor)
		switch check.Classification {
		case UsageForceCompaction:
			if len(check.ChunksToCompact) > 0 {
				p.mode.SetPendingCompaction(threadID, check.ChunksToCompact)
			}
		case UsageNeedsTruncation:
			if len(check.ChunksToTruncate) > 0 {
				p.mode.SetPendingTruncation(threadID, check.ChunksToTruncate)
			}
		}
	}

	step.complete(successor.ID)
	if err := p.store.UpdateStep(ctx, step); err != nil {
		return nil, err
	}

	addedIDs := make(map[string]bool, len(result.Chunks))
	for _, c := range result.Chunks {
		addedIDs[c.ID] = true
	}
	var removed []string
	for _, op := range result.Operations {
		if op.Type == OpDelete {
			removed = append(removed, op.ChunkID)
		}
		if op.Type == OpUpdate {
			removed = append(removed, op.OldChunkID)
		}
		if op.Type == OpBatchReplace {
			removed = append(removed, op.OldChunkIDs...)
		}
	}

	return &ProcessResult{
		Thread:           thread,
		State:            successor,
		AddedChunks:      result.Chunks,
		RemovedChunkIDs:  removed,
		ShouldTerminate:  strategy == DispatchTerminate,
		ShouldInterrupt:  strategy == DispatchInterrupt,
		DispatchStrategy: strategy,
	}, nil
}

// eventProvenance builds the provenance map for a successor state: eventId,
// eventType, stepId, source, timestamp, and event-specific context.
func eventProvenance(qe QueuedEvent, stepID string) map[string]any {
	return map[string]any{
		"eventId":   qe.EventID,
		"eventType": string(qe.Event.Type),
		"stepId":    stepID,
		"source":    "reducer",
		"timestamp": qe.Event.Timestamp.Format(time.RFC3339Nano),
	}
}

// resolveLLMResponse applies an event's llmResponseRequirement to the prior
// flag.
func resolveLLMResponse(prev bool, req LLMResponseRequirement) bool {
	switch req {
	case LLMResponseSet:
		return true
	case LLMResponseClear:
		return false
	default:
		return prev
	}
}
