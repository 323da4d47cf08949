package memoryruntime

import "context"

// EventQueue is a thin, thread-scoped FIFO view over Storage's event-queue
// operations. It exists mainly so callers don't have to thread a thread id
// through every storage call by hand.
type EventQueue struct {
	store    Storage
	threadID string
}

// Storage mirrors the method set of storage.Storage, declared locally to avoid an import cycle with the
// storage package (which itself imports this package's types).
type Storage interface {
	GetEventQueue(ctx context.Context, threadID string) ([]QueuedEvent, error)
	PushEvent(ctx context.Context, threadID string, event QueuedEvent) error
	PopEvent(ctx context.Context, threadID string) (QueuedEvent, bool, error)
	PeekEvent(ctx context.Context, threadID string) (QueuedEvent, bool, error)
	GetEventQueueLength(ctx context.Context, threadID string) (int, error)
	ClearEventQueue(ctx context.Context, threadID string) error

	GetThread(ctx context.Context, id string) (*Thread, error)
	SaveThread(ctx context.Context, thread *Thread) error
	DeleteThread(ctx context.Context, id string) error

	GetState(ctx context.Context, id string) (*State, error)
	SaveState(ctx context.Context, state *State) error
	GetStatesByThread(ctx context.Context, threadID string) ([]*State, error)

	GetChunk(ctx context.Context, id string) (*Chunk, error)
	SaveChunk(ctx context.Context, chunk *Chunk) error
	GetChunks(ctx context.Context, ids []string) ([]*Chunk, error)

	GetStep(ctx context.Context, id string) (*Step, error)
	SaveStep(ctx context.Context, step *Step) error
	UpdateStep(ctx context.Context, step *Step) error
	GetStepsByThread(ctx context.Context, threadID string) ([]*Step, error)
}

// NewEventQueue wraps a Storage backend for a single thread's queue.
func NewEventQueue(store Storage, threadID string) *EventQueue {
	return &EventQueue{store: store, threadID: threadID}
}

// Push enqueues an event, returning the wrapped QueuedEvent.
func (q *EventQueue) Push(ctx context.Context, e Event) (QueuedEvent, error) {
	qe := NewQueuedEvent(e)
	if err := q.store.PushEvent(ctx, q.threadID, qe); err != nil {
		return QueuedEvent{}, err
	}
	return qe, nil
}

// Pop removes and returns the oldest queued event, or ErrQueueEmpty.
func (q *EventQueue) Pop(ctx context.Context) (QueuedEvent, error) {
	qe, ok, err := q.store.PopEvent(ctx, q.threadID)
	if err != nil {
		return QueuedEvent{}, err
	}
	if !ok {
		return QueuedEvent{}, ErrQueueEmpty
	}
	return qe, nil
}

// Peek returns the oldest queued event without removing it, or ErrQueueEmpty.
func (q *EventQueue) Peek(ctx context.Context) (QueuedEvent, error) {
	qe, ok, err := q.store.PeekEvent(ctx, q.threadID)
	if err != nil {
		return QueuedEvent{}, err
	}
	if !ok {
		return QueuedEvent{}, ErrQueueEmpty
	}
	return qe, nil
}

// Len returns the number of events currently queued.
func (q *EventQueue) Len(ctx context.Context) (int, error) {
	return q.store.GetEventQueueLength(ctx, q.threadID)
}

// All returns every queued event in FIFO order, without consuming them.
func (q *EventQueue) All(ctx context.Context) ([]QueuedEvent, error) {
	return q.store.GetEventQueue(ctx, q.threadID)
}

// Clear drops every queued event for this thread.
func (q *EventQueue) Clear(ctx context.Context) error {
	return q.store.ClearEventQueue(ctx, q.threadID)
}
