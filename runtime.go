package memoryruntime

import (
	"context"

	"github.com/agentcore/memoryruntime/runtimelog"
)

// NewDefaultReducerRegistry builds a registry with the three bundled
// reducers registered in a fixed order: the conversation-family reducer,
// the lifecycle reducer, then the memory-control reducer. Registration
// order only matters when two
// reducers could both accept the same event type, which none of the
// bundled reducers do today; the order here is kept stable regardless so a
// registry constructed by this helper is always reproducible.
func NewDefaultReducerRegistry() *ReducerRegistry {
	reg := NewReducerRegistry()
	reg.Register(NewConversationReducer())
	reg.Register(NewLifecycleReducer())
	reg.Register(NewMemoryControlReducer())
	return reg
}

// Runtime bundles every collaborator needed to run the memory runtime
// end to end: storage, the reducer pipeline, compaction, execution mode,
// and the dispatcher/debug facades built on top of them. It is a
// convenience composition root, not a required entry point — callers free
// to wire the pieces themselves (e.g. a custom reducer registry) can use
// the individual constructors directly.
type Runtime struct {
	Store      Storage
	Reducers   *ReducerRegistry
	Observers  *ObserverManager
	Compaction *CompactionManager
	Mode       *ExecutionModeController
	Processor  *EventProcessor
	Dispatcher *EventDispatcher
	Debug      *DebugController

	// Subagents is set when the runtime was built with WithSubagentRegistry,
	// nil otherwise. Exposed directly so callers (e.g. cmd/memoryctl) can
	// register definitions without threading a separate reference through.
	Subagents *SubagentRegistry
}

// RuntimeOption customizes NewRuntime before its collaborators are wired.
type RuntimeOption func(*runtimeConfig)

type runtimeConfig struct {
	reducers         *ReducerRegistry
	compaction       *CompactionManager
	logger           runtimelog.Logger
	subagent         SubagentSpawnObserver
	subagentRegistry *SubagentRegistry
	observers        []Observer
}

// WithReducers overrides the default reducer registry.
func WithReducers(r *ReducerRegistry) RuntimeOption {
	return func(c *runtimeConfig) { c.reducers = r }
}

// WithRuntimeLogger sets the logger every collaborator uses for
// best-effort diagnostics.
func WithRuntimeLogger(logger runtimelog.Logger) RuntimeOption {
	return func(c *runtimeConfig) { c.logger = logger }
}

// WithSubagentObserver registers a SubagentSpawnObserver notified whenever
// a SUBAGENT_SPAWN event is processed.
func WithSubagentObserver(o SubagentSpawnObserver) RuntimeOption {
	return func(c *runtimeConfig) { c.subagent = o }
}

// WithSubagentRegistry wires a SubagentRegistry as both the runtime's
// SubagentSpawnObserver and its exposed Runtime.Subagents field.
func WithSubagentRegistry(r *SubagentRegistry) RuntimeOption {
	return func(c *runtimeConfig) {
		c.subagent = r
		c.subagentRegistry = r
	}
}

// WithObserver registers an additional step observer.
func WithObserver(o Observer) RuntimeOption {
	return func(c *runtimeConfig) { c.observers = append(c.observers, o) }
}

// NewRuntime wires a Runtime from a Storage backend, a CompactionManager
// (nil disables compaction entirely — CheckTokenUsage is simply never
// called), and any options.
func NewRuntime(store Storage, compaction *CompactionManager, opts ...RuntimeOption) *Runtime {
	cfg := &runtimeConfig{
		reducers:   NewDefaultReducerRegistry(),
		compaction: compaction,
		logger:     runtimelog.NullLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	observers := NewObserverManager(cfg.logger)
	for _, o := range cfg.observers {
		observers.Register(o)
	}

	mode := NewExecutionModeController()
	processor := NewEventProcessor(store, cfg.reducers, observers, cfg.compaction, mode, cfg.subagent, cfg.logger)
	dispatcher := NewEventDispatcher(store, processor, cfg.compaction, mode, observers, cfg.logger)
	debug := NewDebugController(store, dispatcher, mode, observers)

	return &Runtime{
		Store:      store,
		Reducers:   cfg.reducers,
		Observers:  observers,
		Compaction: cfg.compaction,
		Mode:       mode,
		Processor:  processor,
		Dispatcher: dispatcher,
		Debug:      debug,
		Subagents:  cfg.subagentRegistry,
	}
}

// CreateThread constructs and persists a brand-new thread with an empty
// initial state.
func (r *Runtime) CreateThread(ctx context.Context) (*Thread, *State, error) {
	state := NewEmptyState("")
	thread := NewThread(state)
	state.ThreadID = thread.ID

	if err := r.Store.SaveState(ctx, state); err != nil {
		return nil, nil, err
	}
	if err := r.Store.SaveThread(ctx, thread); err != nil {
		return nil, nil, err
	}
	return thread, state, nil
}

// DeleteThread deletes a thread and forgets its mode/pending-op state.
// This package does not eagerly garbage-collect orphaned states/chunks,
// since they remain addressable from any snapshot taken before deletion.
func (r *Runtime) DeleteThread(ctx context.Context, threadID string) error {
	if err := r.Store.DeleteThread(ctx, threadID); err != nil {
		return err
	}
	r.Mode.Forget(threadID)
	return nil
}
