package memoryruntime

import "context"

// conversationEventChunkTypes maps the conversation-family event types this
// reducer accepts to the leaf chunk type they produce.
var conversationEventChunkTypes = map[EventType]ChunkType{
	EventUserMessage:     ChunkTypeUserMessage,
	EventLLMTextResponse: ChunkTypeAgentResponse,
	EventLLMToolCall:     ChunkTypeAgentAction,
	EventToolResult:      ChunkTypeActionResponse,
	EventThinking:        ChunkTypeThinking,
	EventSubagentSpawn:   ChunkTypeSubagentSpawn,
	EventSubagentResult:  ChunkTypeSubagentResult,
}

// ConversationReducer maintains a single WORKING_HISTORY container per
// state by convention: if one exists, the new leaf chunk is appended as a
// child; otherwise a container is created with the leaf as its first child.
type ConversationReducer struct{}

// NewConversationReducer constructs the bundled conversation-family
// reducer.
func NewConversationReducer() *ConversationReducer {
	return &ConversationReducer{}
}

func (r *ConversationReducer) Accepts(t EventType) bool {
	_, ok := conversationEventChunkTypes[t]
	return ok
}

func (r *ConversationReducer) Reduce(_ context.Context, state *State, qe QueuedEvent) (ReducerResult, error) {
	chunkType := conversationEventChunkTypes[qe.Event.Type]
	leaf := NewChunk(chunkType, leafContent(qe.Event), WithSourceOperation(qe.EventID))

	container := findWorkingHistoryContainer(state)
	if container != nil {
		op := AddChildOp(container.ID, leaf)
		return ReducerResult{Operations: []Operation{op}, Chunks: []*Chunk{leaf}}, nil
	}

	newContainer := NewChunk(ChunkTypeWorkingHistory, &StructuredContent{Fields: map[string]any{}}, WithSourceOperation(qe.EventID))
	ops := []Operation{
		AddOp(newContainer),
		AddChildOp(newContainer.ID, leaf),
	}
	return ReducerResult{Operations: ops, Chunks: []*Chunk{newContainer, leaf}}, nil
}

// findWorkingHistoryContainer returns the state's WORKING_HISTORY container
// chunk, if one has already been created.
func findWorkingHistoryContainer(state *State) *Chunk {
	for _, c := range state.OrderedChunks() {
		if c.Type == ChunkTypeWorkingHistory {
			return c
		}
	}
	return nil
}

// leafContent builds the Content for a conversation leaf chunk from the
// event payload. USER_MESSAGE/LLM_TEXT_RESPONSE/THINKING carry a "content"
// string; tool-call/result and sub-agent events carry structured fields.
func leafContent(e Event) Content {
	switch e.Type {
	case EventUserMessage, EventLLMTextResponse, EventThinking:
		return &TextContent{Text: e.PayloadString("content")}
	case EventLLMToolCall:
		return &StructuredContent{Fields: map[string]any{
			"toolName":  e.PayloadString("toolName"),
			"callId":    e.PayloadString("callId"),
			"arguments": firstNonNil(e, "arguments"),
		}}
	case EventToolResult:
		return &StructuredContent{Fields: map[string]any{
			"callId":  e.PayloadString("callId"),
			"success": e.PayloadBool("success"),
			"result":  firstNonNil(e, "result"),
		}}
	case EventSubagentSpawn:
		return &StructuredContent{Fields: map[string]any{
			"subagentName": e.PayloadString("subagentName"),
			"task":         e.PayloadString("task"),
		}}
	case EventSubagentResult:
		return &StructuredContent{Fields: map[string]any{
			"subagentName": e.PayloadString("subagentName"),
			"result":       firstNonNil(e, "result"),
		}}
	default:
		return &TextContent{}
	}
}

func firstNonNil(e Event, key string) any {
	v, _ := e.PayloadValue(key)
	return v
}
