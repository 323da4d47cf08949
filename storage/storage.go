// Package storage defines the persistence interface for the agent memory
// runtime: threads, states, chunks, steps, and the
// per-thread event queue. It is deliberately key/value shaped so that a
// durable implementation only needs get/put/delete plus a couple of
// secondary indices (by-thread lookups).
package storage

import (
	"context"
	"fmt"

	"github.com/agentcore/memoryruntime"
)

// Sentinel not-found errors, one per record kind, following a flat
// Err*NotFound convention. Each wraps the matching memoryruntime sentinel,
// so errors.Is matches either one.
var (
	ErrThreadNotFound = fmt.Errorf("storage: %w", memoryruntime.ErrThreadNotFound)
	ErrStateNotFound  = fmt.Errorf("storage: %w", memoryruntime.ErrStateNotFound)
	ErrChunkNotFound  = fmt.Errorf("storage: %w", memoryruntime.ErrChunkNotFound)
	ErrStepNotFound   = fmt.Errorf("storage: %w", memoryruntime.ErrStepNotFound)
)

// Storage is the abstract persistence backend a runtime orchestrator is
// built on. An in-memory implementation (storage/memstore)
// satisfies every behavioral test; any durable implementation must provide
// at-least-once read-back of committed writes.
type Storage interface {
	// Threads.
	GetThread(ctx context.Context, id string) (*memoryruntime.Thread, error)
	SaveThread(ctx context.Context, thread *memoryruntime.Thread) error
	DeleteThread(ctx context.Context, id string) error

	// States.
	GetState(ctx context.Context, id string) (*memoryruntime.State, error)
	SaveState(ctx context.Context, state *memoryruntime.State) error
	GetStatesByThread(ctx context.Context, threadID string) ([]*memoryruntime.State, error)

	// Chunks.
	GetChunk(ctx context.Context, id string) (*memoryruntime.Chunk, error)
	SaveChunk(ctx context.Context, chunk *memoryruntime.Chunk) error
	GetChunks(ctx context.Context, ids []string) ([]*memoryruntime.Chunk, error)

	// Steps.
	GetStep(ctx context.Context, id string) (*memoryruntime.Step, error)
	SaveStep(ctx context.Context, step *memoryruntime.Step) error
	UpdateStep(ctx context.Context, step *memoryruntime.Step) error
	GetStepsByThread(ctx context.Context, threadID string) ([]*memoryruntime.Step, error)

	// Thread-scoped event queue. These mirror the Thread.EventQueue field so
	// a durable backend can keep the queue in its own table/index rather
	// than rewriting the whole thread record on every push/pop.
	GetEventQueue(ctx context.Context, threadID string) ([]memoryruntime.QueuedEvent, error)
	PushEvent(ctx context.Context, threadID string, event memoryruntime.QueuedEvent) error
	PopEvent(ctx context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error)
	PeekEvent(ctx context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error)
	GetEventQueueLength(ctx context.Context, threadID string) (int, error)
	ClearEventQueue(ctx context.Context, threadID string) error
}
