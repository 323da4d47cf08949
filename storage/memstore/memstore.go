// Package memstore is an in-memory Storage implementation: a
// sync.RWMutex-guarded set of maps, values copied in and out so callers
// can never mutate state behind the store's back.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage"
)

// Store is a sync.RWMutex-guarded in-memory Storage, suitable for tests and
// single-process runtimes.
type Store struct {
	mu sync.RWMutex

	threads map[string]*memoryruntime.Thread
	states  map[string]*memoryruntime.State
	chunks  map[string]*memoryruntime.Chunk
	steps   map[string]*memoryruntime.Step

	// statesByThread and stepsByThread preserve insertion order, matching
	// the append-only nature of state and step history.
	statesByThread map[string][]string
	stepsByThread  map[string][]string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		threads:        make(map[string]*memoryruntime.Thread),
		states:         make(map[string]*memoryruntime.State),
		chunks:         make(map[string]*memoryruntime.Chunk),
		steps:          make(map[string]*memoryruntime.Step),
		statesByThread: make(map[string][]string),
		stepsByThread:  make(map[string][]string),
	}
}

var _ storage.Storage = (*Store)(nil)

// --- Threads ---

func (s *Store) GetThread(_ context.Context, id string) (*memoryruntime.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, storage.ErrThreadNotFound
	}
	cp := *t
	cp.EventQueue = append([]memoryruntime.QueuedEvent(nil), t.EventQueue...)
	cp.Tools = append([]string(nil), t.Tools...)
	cp.SubAgents = append([]string(nil), t.SubAgents...)
	cp.ChildThreadIDs = append([]string(nil), t.ChildThreadIDs...)
	return &cp, nil
}

func (s *Store) SaveThread(_ context.Context, thread *memoryruntime.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *thread
	cp.EventQueue = append([]memoryruntime.QueuedEvent(nil), thread.EventQueue...)
	cp.Tools = append([]string(nil), thread.Tools...)
	cp.SubAgents = append([]string(nil), thread.SubAgents...)
	cp.ChildThreadIDs = append([]string(nil), thread.ChildThreadIDs...)
	s.threads[thread.ID] = &cp
	return nil
}

func (s *Store) DeleteThread(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
	delete(s.statesByThread, id)
	delete(s.stepsByThread, id)
	return nil
}

// --- States ---

func (s *Store) GetState(_ context.Context, id string) (*memoryruntime.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, storage.ErrStateNotFound
	}
	return st.Copy(), nil
}

func (s *Store) SaveState(_ context.Context, state *memoryruntime.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.states[state.ID]; !exists {
		s.statesByThread[state.ThreadID] = append(s.statesByThread[state.ThreadID], state.ID)
	}
	s.states[state.ID] = state.Copy()
	return nil
}

func (s *Store) GetStatesByThread(_ context.Context, threadID string) ([]*memoryruntime.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.statesByThread[threadID]
	out := make([]*memoryruntime.State, 0, len(ids))
	for _, id := range ids {
		if st, ok := s.states[id]; ok {
			out = append(out, st.Copy())
		}
	}
	return out, nil
}

// --- Chunks ---

func (s *Store) GetChunk(_ context.Context, id string) (*memoryruntime.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, storage.ErrChunkNotFound
	}
	return c.Copy(), nil
}

func (s *Store) SaveChunk(_ context.Context, chunk *memoryruntime.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = chunk.Copy()
	return nil
}

func (s *Store) GetChunks(_ context.Context, ids []string) ([]*memoryruntime.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*memoryruntime.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c.Copy())
		}
	}
	return out, nil
}

// --- Steps ---

func (s *Store) GetStep(_ context.Context, id string) (*memoryruntime.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.steps[id]
	if !ok {
		return nil, storage.ErrStepNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) SaveStep(_ context.Context, step *memoryruntime.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.steps[step.ID]; !exists {
		s.stepsByThread[step.ThreadID] = append(s.stepsByThread[step.ThreadID], step.ID)
	}
	cp := *step
	s.steps[step.ID] = &cp
	return nil
}

func (s *Store) UpdateStep(_ context.Context, step *memoryruntime.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[step.ID]; !ok {
		return storage.ErrStepNotFound
	}
	cp := *step
	s.steps[step.ID] = &cp
	return nil
}

func (s *Store) GetStepsByThread(_ context.Context, threadID string) ([]*memoryruntime.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.stepsByThread[threadID]
	out := make([]*memoryruntime.Step, 0, len(ids))
	for _, id := range ids {
		if st, ok := s.steps[id]; ok {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Event queue ---

func (s *Store) GetEventQueue(_ context.Context, threadID string) ([]memoryruntime.QueuedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return nil, storage.ErrThreadNotFound
	}
	return append([]memoryruntime.QueuedEvent(nil), t.EventQueue...), nil
}

func (s *Store) PushEvent(_ context.Context, threadID string, event memoryruntime.QueuedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return storage.ErrThreadNotFound
	}
	t.EventQueue = append(t.EventQueue, event)
	return nil
}

func (s *Store) PopEvent(_ context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return memoryruntime.QueuedEvent{}, false, storage.ErrThreadNotFound
	}
	if len(t.EventQueue) == 0 {
		return memoryruntime.QueuedEvent{}, false, nil
	}
	ev := t.EventQueue[0]
	t.EventQueue = t.EventQueue[1:]
	return ev, true, nil
}

func (s *Store) PeekEvent(_ context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return memoryruntime.QueuedEvent{}, false, storage.ErrThreadNotFound
	}
	if len(t.EventQueue) == 0 {
		return memoryruntime.QueuedEvent{}, false, nil
	}
	return t.EventQueue[0], true, nil
}

func (s *Store) GetEventQueueLength(_ context.Context, threadID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threads[threadID]
	if !ok {
		return 0, storage.ErrThreadNotFound
	}
	return len(t.EventQueue), nil
}

func (s *Store) ClearEventQueue(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return storage.ErrThreadNotFound
	}
	t.EventQueue = nil
	return nil
}

// ListThreads returns every thread id currently stored, sorted for
// deterministic iteration (not part of the Storage interface, but useful
// for the CLI and debug introspection).
func (s *Store) ListThreads(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.threads))
	for id := range s.threads {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
