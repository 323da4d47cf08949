package memoryruntime

import "time"

// EventType identifies what kind of event is being processed. The runtime
// itself only recognizes a handful of lifecycle/memory-control types by
// name (see reducers_lifecycle.go, reducers_memory.go); application event
// types are opaque strings dispatched to whichever reducers accept them.
type EventType string

// Built-in event types recognized by the bundled reducers.
const (
	EventUserMessage      EventType = "USER_MESSAGE"
	EventLLMTextResponse  EventType = "LLM_TEXT_RESPONSE"
	EventLLMToolCall      EventType = "LLM_TOOL_CALL"
	EventToolResult       EventType = "TOOL_RESULT"
	EventThinking         EventType = "THINKING"
	EventSubagentSpawn    EventType = "SUBAGENT_SPAWN"
	EventSubagentResult   EventType = "SUBAGENT_RESULT"
	EventTaskCompleted    EventType = "TASK_COMPLETED"
	EventTaskAbandoned    EventType = "TASK_ABANDONED"
	EventTaskTerminated   EventType = "TASK_TERMINATED"
	EventMemoryMarkCrit   EventType = "MEMORY_MARK_CRITICAL"
	EventMemoryForget     EventType = "MEMORY_FORGET"
)

// DispatchStrategy controls how the orchestrator treats an event once it has
// been processed.
type DispatchStrategy string

const (
	DispatchQueue     DispatchStrategy = "queue"
	DispatchInterrupt DispatchStrategy = "interrupt"
	DispatchTerminate DispatchStrategy = "terminate"
	DispatchSilent    DispatchStrategy = "silent"
)

// LLMResponseRequirement controls how an event affects
// State.NeedLLMContinueResponse.
type LLMResponseRequirement string

const (
	LLMResponseKeep  LLMResponseRequirement = "keep"
	LLMResponseSet   LLMResponseRequirement = "set"
	LLMResponseClear LLMResponseRequirement = "clear"
)

// lifecycleTerminatingEvents default to DispatchTerminate.
var lifecycleTerminatingEvents = map[EventType]bool{
	EventTaskCompleted:  true,
	EventTaskAbandoned:  true,
	EventTaskTerminated: true,
}

// Event is the envelope dispatched into a thread: "{type, timestamp,
// ...payload}". Payload carries event-specific fields (content, tool call
// arguments, ...); the bundled reducers read well-known keys from it via
// the Payload* helpers below rather than requiring a typed Go struct per
// event kind.
type Event struct {
	Type                   EventType              `json:"type"`
	Timestamp              time.Time              `json:"timestamp"`
	DispatchStrategy       DispatchStrategy       `json:"dispatchStrategy,omitempty"`
	LLMResponseRequirement LLMResponseRequirement `json:"llmResponseRequirement,omitempty"`
	Payload                map[string]any         `json:"payload,omitempty"`
}

// ResolvedDispatchStrategy returns the event's explicit dispatch strategy,
// or the type-driven default when none was set.
func (e Event) ResolvedDispatchStrategy() DispatchStrategy {
	if e.DispatchStrategy != "" {
		return e.DispatchStrategy
	}
	if lifecycleTerminatingEvents[e.Type] {
		return DispatchTerminate
	}
	return DispatchQueue
}

// PayloadString returns a string field from Payload, or "" if absent or not
// a string.
func (e Event) PayloadString(key string) string {
	if e.Payload == nil {
		return ""
	}
	s, _ := e.Payload[key].(string)
	return s
}

// PayloadBool returns a bool field from Payload, or false if absent or not
// a bool.
func (e Event) PayloadBool(key string) bool {
	if e.Payload == nil {
		return false
	}
	b, _ := e.Payload[key].(bool)
	return b
}

// PayloadValue returns a raw field from Payload.
func (e Event) PayloadValue(key string) (any, bool) {
	if e.Payload == nil {
		return nil, false
	}
	v, ok := e.Payload[key]
	return v, ok
}

// QueuedEvent wraps an Event with queue bookkeeping.
type QueuedEvent struct {
	EventID     string    `json:"eventId"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	Event       Event     `json:"event"`
}

// NewQueuedEvent wraps an event for insertion into a thread's queue.
func NewQueuedEvent(e Event) QueuedEvent {
	return QueuedEvent{
		EventID:    newID("qevt"),
		EnqueuedAt: nowFunc(),
		Event:      e,
	}
}
