package memoryruntime

import (
	"context"
	"time"

	"github.com/agentcore/memoryruntime/runtimelog"
)

// NotificationKind discriminates the payload carried by an ObserverEvent.
// Only the fields relevant to a given kind are populated; the rest are left
// at their zero value.
type NotificationKind string

const (
	NotifyEventDispatched  NotificationKind = "EVENT_DISPATCHED"
	NotifyEventQueued      NotificationKind = "EVENT_QUEUED"
	NotifyEventDequeued    NotificationKind = "EVENT_DEQUEUED"
	NotifyReducerExecuted  NotificationKind = "REDUCER_EXECUTED"
	NotifyStateChanged     NotificationKind = "STATE_CHANGED"
	NotifyCompactionStart  NotificationKind = "COMPACTION_START"
	NotifyCompactionEnd    NotificationKind = "COMPACTION_END"
	NotifySubagentSpawned  NotificationKind = "SUBAGENT_SPAWNED"
	NotifySubagentResulted NotificationKind = "SUBAGENT_RESULTED"
	NotifyError            NotificationKind = "ERROR"
)

// ObserverEvent is the single notification payload delivered to
// Observer.OnNotify. It is modeled as one tagged struct with a Kind
// discriminator rather than one interface method per kind, so adding a new
// kind never breaks existing Observer implementations.
type ObserverEvent struct {
	Kind     NotificationKind
	ThreadID string

	Thread *Thread
	Step   *Step
	Prev   *State
	Next   *State

	// TriggerEvent is set for EVENT_DISPATCHED/EVENT_QUEUED/EVENT_DEQUEUED.
	TriggerEvent *Event

	// Duration is set for REDUCER_EXECUTED.
	Duration time.Duration

	// TokensBefore/TokensAfter/ChunksReplaced are set for COMPACTION_END.
	TokensBefore   int
	TokensAfter    int
	ChunksReplaced int

	// SubagentName is set for SUBAGENT_SPAWNED/SUBAGENT_RESULTED.
	SubagentName string

	// Err is set for ERROR.
	Err error
}

// Observer receives synchronous notifications over the lifecycle of event
// processing and debug actions. Observers run best-effort: a panic or error
// from one observer must not affect another observer or the step itself.
type Observer interface {
	OnNotify(ctx context.Context, ev ObserverEvent)
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc func(ctx context.Context, ev ObserverEvent)

func (f ObserverFunc) OnNotify(ctx context.Context, ev ObserverEvent) {
	f(ctx, ev)
}

// ObserverManager fans out notifications to every registered observer,
// synchronously and best-effort.
type ObserverManager struct {
	logger    runtimelog.Logger
	observers []Observer
}

// NewObserverManager constructs a manager using logger for best-effort
// failure reporting (a nil logger falls back to NullLogger).
func NewObserverManager(logger runtimelog.Logger) *ObserverManager {
	if logger == nil {
		logger = runtimelog.NullLogger{}
	}
	return &ObserverManager{logger: logger}
}

// Register adds an observer. Observers are notified in registration order.
func (m *ObserverManager) Register(o Observer) {
	m.observers = append(m.observers, o)
}

// Notify calls every registered observer in turn, recovering from panics
// and logging (not propagating) any failure.
func (m *ObserverManager) Notify(ctx context.Context, ev ObserverEvent) {
	for _, o := range m.observers {
		m.callOne(ctx, o, ev)
	}
}

func (m *ObserverManager) callOne(ctx context.Context, o Observer, ev ObserverEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(ctx, "observer panicked", "kind", string(ev.Kind), "threadId", ev.ThreadID, "panic", r)
		}
	}()
	o.OnNotify(ctx, ev)
}

// stateChangedEvent builds the ObserverEvent for a completed step that
// produced (or reused, if prev == next) a state, the most common kind.
func stateChangedEvent(thread *Thread, step *Step, prev, next *State) ObserverEvent {
	return ObserverEvent{
		Kind:     NotifyStateChanged,
		ThreadID: thread.ID,
		Thread:   thread,
		Step:     step,
		Prev:     prev,
		Next:     next,
	}
}

// errorEvent builds the ObserverEvent for a failure that has no dedicated
// notification kind of its own, so observers still learn about it instead
// of it being visible only through logs.
func errorEvent(threadID string, err error) ObserverEvent {
	return ObserverEvent{
		Kind:     NotifyError,
		ThreadID: threadID,
		Err:      err,
	}
}
