package memoryruntime

import "time"

// ThreadMetadata carries thread-level bookkeeping, folding arbitrary
// caller-supplied fields into a single Custom map.
type ThreadMetadata struct {
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Custom    map[string]any `json:"custom,omitempty"`
}

// Thread is the identity and lifecycle record for a conversation or agent
// run. A thread's history is the chain of States reachable by following
// Metadata.PreviousStateID back from CurrentStateID to InitialStateID; the
// thread record itself only ever gains new history, it is never rewritten.
type Thread struct {
	ID             string         `json:"id"`
	CurrentStateID string         `json:"currentStateId"`
	InitialStateID string         `json:"initialStateId"`
	Metadata       ThreadMetadata `json:"metadata"`

	// EventQueue is the ordered list of events not yet processed for this
	// thread. It is persisted alongside the thread record.
	EventQueue []QueuedEvent `json:"eventQueue"`

	// CurrentStepID is the step lock holder, if any.
	CurrentStepID string `json:"currentStepId,omitempty"`

	// NeedsResponse is an external hint to the agent loop that the next
	// tick should ask the model for a response.
	NeedsResponse bool `json:"needsResponse"`

	// Runtime metadata preserved through updates but not interpreted by
	// this package: the blueprint/tool/sub-agent wiring lives one layer up,
	// in the IM surface.
	BlueprintID    string   `json:"blueprintId,omitempty"`
	BlueprintName  string   `json:"blueprintName,omitempty"`
	LLMConfig      string   `json:"llmConfig,omitempty"`
	Tools          []string `json:"tools,omitempty"`
	SubAgents      []string `json:"subAgents,omitempty"`
	ChildThreadIDs []string `json:"childThreadIds,omitempty"`
	ParentThreadID string   `json:"parentThreadId,omitempty"`

	// CompactionHistory is an append-only ledger of every compaction this
	// thread has undergone, most recent last. It is never consulted by
	// ExecuteCompaction itself, only recorded by the dispatcher for
	// operator-facing audit and the debug CLI.
	CompactionHistory []CompactionRecord `json:"compactionHistory,omitempty"`
}

// NewThread constructs a thread seeded with the given initial state. The
// caller is responsible for persisting both the thread and the state
// through Storage.
func NewThread(initial *State) *Thread {
	now := nowFunc()
	return &Thread{
		ID:             newThreadID(),
		CurrentStateID: initial.ID,
		InitialStateID: initial.ID,
		Metadata:       ThreadMetadata{CreatedAt: now, UpdatedAt: now},
		EventQueue:     []QueuedEvent{},
	}
}

// Touch stamps UpdatedAt with the current time.
func (t *Thread) Touch() {
	t.Metadata.UpdatedAt = nowFunc()
}
