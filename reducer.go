package memoryruntime

import "context"

// Reducer is a pure function from (state, event) to a declarative
// ReducerResult. Reducers must not mutate state or read wall-clock time;
// any timestamp they need is on the Event itself.
type Reducer interface {
	// Accepts reports whether this reducer handles the given event type.
	Accepts(eventType EventType) bool

	// Reduce computes the operations and new chunks for this event against
	// the given state. It must be side-effect free.
	Reduce(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error)
}

// ReducerFunc adapts a plain function to a Reducer for a fixed set of event
// types, the functional-options-adjacent shorthand the bundled reducers use
// to avoid a one-struct-per-event-type boilerplate.
type ReducerFunc struct {
	types []EventType
	fn    func(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error)
}

// NewReducerFunc builds a Reducer handling exactly the given event types.
func NewReducerFunc(fn func(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error), types ...EventType) *ReducerFunc {
	return &ReducerFunc{types: types, fn: fn}
}

func (r *ReducerFunc) Accepts(t EventType) bool {
	for _, want := range r.types {
		if want == t {
			return true
		}
	}
	return false
}

func (r *ReducerFunc) Reduce(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
	return r.fn(ctx, state, qe)
}

// ReducerRegistry holds an ordered list of reducers and resolves which one
// handles a given event.
type ReducerRegistry struct {
	reducers []Reducer
}

// NewReducerRegistry constructs an empty registry.
func NewReducerRegistry() *ReducerRegistry {
	return &ReducerRegistry{}
}

// Register appends a reducer to the registry. Order matters: Reduce
// concatenates the results of every accepting reducer in registration order,
// and Resolve returns the earliest registered match.
func (r *ReducerRegistry) Register(reducer Reducer) {
	r.reducers = append(r.reducers, reducer)
}

// Resolve returns the first registered reducer accepting eventType, or nil
// if none do. Used where a single representative reducer is needed (e.g.
// introspection); Reduce itself invokes every accepting reducer, not just
// this one.
func (r *ReducerRegistry) Resolve(eventType EventType) Reducer {
	for _, reducer := range r.reducers {
		if reducer.Accepts(eventType) {
			return reducer
		}
	}
	return nil
}

// Reduce invokes every registered reducer that accepts the event's type, in
// registration order, and concatenates their operations and chunks in that
// same order. An event no reducer accepts yields an empty ReducerResult, not
// an error.
func (r *ReducerRegistry) Reduce(ctx context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
	var result ReducerResult
	for _, reducer := range r.reducers {
		if !reducer.Accepts(qe.Event.Type) {
			continue
		}
		partial, err := reducer.Reduce(ctx, state, qe)
		if err != nil {
			return ReducerResult{}, err
		}
		result.Operations = append(result.Operations, partial.Operations...)
		result.Chunks = append(result.Chunks, partial.Chunks...)
	}
	return result, nil
}
