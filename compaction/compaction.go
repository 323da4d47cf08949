// Package compaction provides the bundled Compactor implementation the
// runtime can register with a CompactionManager: filter unanswered tool
// calls out of the chunk window, summarize what remains through a model
// client, then extract the tagged summary from its response.
package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/modelclient"
	"github.com/agentcore/memoryruntime/tokenizer"
)

// DefaultSummaryPrompt asks the model to summarize a window of chunks into
// a single <summary> block.
const DefaultSummaryPrompt = `Summarize the memory entries below so the conversation can continue without them. Include:

1. Task Overview - what the agent is trying to accomplish
2. Current State - what has been done so far and what succeeded or failed
3. Important Discoveries - facts, values, or decisions worth preserving
4. Next Steps - what remains to be done

Wrap the summary in <summary></summary> tags. Be concise but preserve anything a continuation of this task would need.`

// Compactor is the bundled, model-backed implementation of
// memoryruntime.Compactor.
type Compactor struct {
	client        modelclient.Client
	tokenizer     tokenizer.Tokenizer
	summaryPrompt string
}

// New constructs a Compactor using DefaultSummaryPrompt.
func New(client modelclient.Client, tok tokenizer.Tokenizer) *Compactor {
	return NewWithPrompt(client, tok, DefaultSummaryPrompt)
}

// NewWithPrompt constructs a Compactor with a custom summarization prompt.
func NewWithPrompt(client modelclient.Client, tok tokenizer.Tokenizer, summaryPrompt string) *Compactor {
	return &Compactor{client: client, tokenizer: tok, summaryPrompt: summaryPrompt}
}

// CanCompact reports whether this compactor is usable at all: it needs a
// model client and at least one chunk to work with.
func (c *Compactor) CanCompact(chunks []*memoryruntime.Chunk) bool {
	return c.client != nil && len(chunks) > 0
}

// Compact filters out pending (unanswered) tool calls, renders the
// remaining chunks as a flat entry list, asks the model client for a
// <summary>-wrapped synopsis, and wraps it in a new COMPACTED chunk whose
// ParentIDs point at every chunk it replaces.
func (c *Compactor) Compact(ctx context.Context, cc memoryruntime.CompactionContext) (*memoryruntime.Chunk, error) {
	if c.client == nil {
		return nil, fmt.Errorf("compaction: model client is required")
	}

	filtered := filterPendingToolUse(cc.Chunks)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("compaction: no chunks to compact after filtering pending tool calls")
	}

	prompt := buildPrompt(c.summaryPrompt, cc.TaskGoal, cc.ProgressSummary, renderEntries(filtered))

	req := modelclient.CompletionRequest{
		Messages: []modelclient.Message{{Role: "user", Content: prompt}},
	}
	result, err := c.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("compaction: summary generation failed: %w", err)
	}

	summary := extractSummary(result.Content)
	if summary == "" {
		return nil, fmt.Errorf("compaction: no summary found in model response (missing <summary> tags)")
	}

	parentIDs := make([]string, len(filtered))
	for i, ch := range filtered {
		parentIDs[i] = ch.ID
	}

	out := memoryruntime.NewChunk(
		memoryruntime.ChunkTypeCompacted,
		&memoryruntime.TextContent{Text: summary},
		memoryruntime.WithParentIDs(parentIDs...),
		memoryruntime.WithCustomMetadata(map[string]any{
			"chunksCompacted":  len(filtered),
			"promptTokens":     result.Usage.PromptTokens,
			"completionTokens": result.Usage.CompletionTokens,
		}),
	)
	return out, nil
}

// buildPrompt assembles the <context>/<entries> structured prompt: the
// compactor is given the chunks to summarize plus best-effort task-goal
// and progress-summary context.
func buildPrompt(instruction, taskGoal, progressSummary, entries string) string {
	var b strings.Builder
	b.WriteString("<context>\n")
	if taskGoal != "" {
		b.WriteString("Task goal: ")
		b.WriteString(taskGoal)
		b.WriteString("\n")
	}
	if progressSummary != "" {
		b.WriteString("Prior progress summary: ")
		b.WriteString(progressSummary)
		b.WriteString("\n")
	}
	b.WriteString("</context>\n\n")
	b.WriteString("<entries>\n")
	b.WriteString(entries)
	b.WriteString("\n</entries>\n\n")
	b.WriteString(instruction)
	return b.String()
}

// renderEntries flattens chunks into a newline-delimited, human-readable
// entry list for the summarization prompt.
func renderEntries(chunks []*memoryruntime.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(string(c.Type))
		b.WriteString("] ")
		b.WriteString(entryText(c))
	}
	return b.String()
}

// entryText renders a single chunk's content for the entry list, falling
// back to a field dump for structured content that has no plain-text
// rendering.
func entryText(c *memoryruntime.Chunk) string {
	if text := memoryruntime.Text(c.Content); text != "" {
		return text
	}
	if sc, ok := c.Content.(*memoryruntime.StructuredContent); ok {
		var parts []string
		for k, v := range sc.Fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// extractSummary extracts content from <summary></summary> tags,
// case-insensitively.
func extractSummary(text string) string {
	lower := strings.ToLower(text)
	const startTag = "<summary>"
	const endTag = "</summary>"

	startIdx := strings.Index(lower, startTag)
	if startIdx == -1 {
		return ""
	}
	startIdx += len(startTag)

	endIdx := strings.Index(lower[startIdx:], endTag)
	if endIdx == -1 {
		return ""
	}
	return strings.TrimSpace(text[startIdx : startIdx+endIdx])
}

// filterPendingToolUse drops AGENT_ACTION chunks that have no matching
// ACTION_RESPONSE (identified by the "callId" structured field): a tool
// call still awaiting its result can't be summarized sensibly, since the
// model would be asked to account for an action whose outcome isn't known
// yet.
func filterPendingToolUse(chunks []*memoryruntime.Chunk) []*memoryruntime.Chunk {
	answered := make(map[string]bool)
	for _, c := range chunks {
		if c.Type != memoryruntime.ChunkTypeActionResponse {
			continue
		}
		if sc, ok := c.Content.(*memoryruntime.StructuredContent); ok {
			if callID, ok := sc.Fields["callId"].(string); ok && callID != "" {
				answered[callID] = true
			}
		}
	}

	out := make([]*memoryruntime.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Type != memoryruntime.ChunkTypeAgentAction {
			out = append(out, c)
			continue
		}
		sc, ok := c.Content.(*memoryruntime.StructuredContent)
		if !ok {
			out = append(out, c)
			continue
		}
		callID, _ := sc.Fields["callId"].(string)
		if callID != "" && answered[callID] {
			out = append(out, c)
		}
	}
	return out
}
