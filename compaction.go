package memoryruntime

import (
	"context"
	"sort"
	"time"

	"github.com/agentcore/memoryruntime/runtimelog"
)

// UsageClassification is the result of checking a state's token usage
// against a CompactionConfig.
type UsageClassification string

const (
	UsageNoAction        UsageClassification = "noAction"
	UsageSoftWarning     UsageClassification = "softWarning"
	UsageForceCompaction UsageClassification = "forceCompaction"
	UsageNeedsTruncation UsageClassification = "needsTruncation"
)

// CompactionConfig holds the absolute-token-count thresholds that drive
// CompactionManager's classification.
type CompactionConfig struct {
	SoftThreshold       int
	HardThreshold       int
	TruncationThreshold int
}

// DefaultCompactionConfig uses a 100_000-token hard threshold, with a soft
// warning at 80% and a truncation ceiling at 150%.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		SoftThreshold:       80_000,
		HardThreshold:       100_000,
		TruncationThreshold: 150_000,
	}
}

// UsageCheck is the outcome of CompactionManager.CheckTokenUsage.
type UsageCheck struct {
	Classification   UsageClassification
	TotalTokens      int
	ChunksToCompact  []*Chunk
	ChunksToTruncate []string
}

// CompactionContext is the best-effort context a Compactor is given when
// asked to summarize a set of chunks.
type CompactionContext struct {
	State           *State
	Chunks          []*Chunk
	TaskGoal        string
	ProgressSummary string
}

// Compactor is an external strategy able to summarize a set of chunks into
// a single replacement chunk.
type Compactor interface {
	// CanCompact reports whether this compactor handles the given chunks.
	CanCompact(chunks []*Chunk) bool

	// Compact produces a single summary chunk replacing chunks, with
	// ParentIDs set to the originals' ids.
	Compact(ctx context.Context, cc CompactionContext) (*Chunk, error)
}

// CompactionEvent is emitted to observers after a compaction completes.
type CompactionEvent struct {
	ThreadID       string
	TokensBefore   int
	TokensAfter    int
	ChunksReplaced int
	Summary        *Chunk
}

// CompactionRecord is one entry in a thread's append-only compaction
// ledger, letting an operator reconstruct how much history a thread has
// shed over its lifetime without replaying the full event queue.
type CompactionRecord struct {
	StepID          string    `json:"stepId"`
	PreviousStateID string    `json:"previousStateId"`
	ResultStateID   string    `json:"resultStateId"`
	TokensBefore    int       `json:"tokensBefore"`
	TokensAfter     int       `json:"tokensAfter"`
	ChunksReplaced  int       `json:"chunksReplaced"`
	SummaryChunkID  string    `json:"summaryChunkId"`
	CompactedAt     time.Time `json:"compactedAt"`
}

// CompactionManager inspects token usage and executes compaction/truncation.
// It holds no per-thread state of its own; thresholds and
// compactors are configured once and shared across threads.
type CompactionManager struct {
	config     CompactionConfig
	tokenizer  Tokenizer
	compactors []Compactor
	logger     runtimelog.Logger
}

// NewCompactionManager constructs a manager with the given config and
// tokenizer. Compactors are registered afterward via RegisterCompactor.
func NewCompactionManager(config CompactionConfig, tokenizer Tokenizer, logger runtimelog.Logger) *CompactionManager {
	if logger == nil {
		logger = runtimelog.NullLogger{}
	}
	return &CompactionManager{config: config, tokenizer: tokenizer, logger: logger}
}

// RegisterCompactor appends a compactor; the first one whose CanCompact
// returns true for a given chunk set is used.
func (m *CompactionManager) RegisterCompactor(c Compactor) {
	m.compactors = append(m.compactors, c)
}

// compactable reports whether a chunk's retention strategy makes it
// eligible for compaction or truncation; CRITICAL chunks are never evicted.
func compactable(c *Chunk) bool {
	switch c.RetentionStrategy {
	case RetentionCompressible, RetentionBatchCompressible, RetentionDisposable:
		return true
	default:
		return false
	}
}

// deepTokenCount sums tok over c's own text plus every descendant reachable
// through ChildIDs, since a WORKING_HISTORY container holds its
// conversation leaves as children rather than as top-level state entries.
func deepTokenCount(tok Tokenizer, state *State, c *Chunk) int {
	total := tok.CountTokens(Text(c.Content))
	for _, childID := range c.ChildIDs {
		if child, ok := state.Chunk(childID); ok {
			total += deepTokenCount(tok, state, child)
		}
	}
	return total
}

func deepTokenCountAll(tok Tokenizer, state *State, chunks []*Chunk) int {
	total := 0
	for _, c := range chunks {
		total += deepTokenCount(tok, state, c)
	}
	return total
}

// CheckTokenUsage computes total token usage for state and classifies it.
func (m *CompactionManager) CheckTokenUsage(state *State) UsageCheck {
	var critical, compactableChunks []*Chunk
	for _, c := range state.OrderedChunks() {
		if compactable(c) {
			compactableChunks = append(compactableChunks, c)
		} else {
			critical = append(critical, c)
		}
	}
	total := deepTokenCountAll(m.tokenizer, state, critical) + deepTokenCountAll(m.tokenizer, state, compactableChunks)

	check := UsageCheck{TotalTokens: total}

	if total >= m.config.TruncationThreshold {
		check.Classification = UsageNeedsTruncation
		check.ChunksToTruncate = m.selectTruncationSet(state, compactableChunks, critical)
		return check
	}
	if total >= m.config.HardThreshold {
		check.Classification = UsageForceCompaction
		check.ChunksToCompact = compactableChunks
		return check
	}
	if total >= m.config.SoftThreshold {
		check.Classification = UsageSoftWarning
		return check
	}
	check.Classification = UsageNoAction
	return check
}

// selectTruncationSet picks the oldest compactable chunks (by
// Metadata.CreatedAt, ties kept in input order) whose removal brings the total under TruncationThreshold.
func (m *CompactionManager) selectTruncationSet(state *State, compactableChunks, critical []*Chunk) []string {
	criticalTotal := deepTokenCountAll(m.tokenizer, state, critical)
	remaining := deepTokenCountAll(m.tokenizer, state, compactableChunks) + criticalTotal

	ordered := append([]*Chunk(nil), compactableChunks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Metadata.CreatedAt.Before(ordered[j].Metadata.CreatedAt)
	})

	var toTruncate []string
	for _, c := range ordered {
		if remaining < m.config.TruncationThreshold {
			break
		}
		toTruncate = append(toTruncate, c.ID)
		remaining -= deepTokenCount(m.tokenizer, state, c)
	}
	return toTruncate
}

// ExecuteCompaction runs compaction against the given chunk set, producing
// a BATCH_REPLACE operation and the resulting successor state. The caller
// (EventDispatcher) is responsible for persisting the result.
func (m *CompactionManager) ExecuteCompaction(ctx context.Context, state *State, chunks []*Chunk) (*State, *CompactionEvent, error) {
	var chosen Compactor
	for _, c := range m.compactors {
		if c.CanCompact(chunks) {
			chosen = c
			break
		}
	}
	if chosen == nil {
		return nil, nil, &CompactorError{ThreadID: state.ThreadID, Err: ErrNoCompactor}
	}

	tokensBefore := deepTokenCountAll(m.tokenizer, state, chunks)
	cc := CompactionContext{
		State:           state,
		Chunks:          chunks,
		TaskGoal:        findTaskGoal(state),
		ProgressSummary: findProgressSummary(state),
	}
	summary, err := chosen.Compact(ctx, cc)
	if err != nil {
		return nil, nil, &CompactorError{ThreadID: state.ThreadID, Err: err}
	}

	oldIDs := make([]string, len(chunks))
	for i, c := range chunks {
		oldIDs[i] = c.ID
	}
	op := BatchReplaceOp(oldIDs, summary)

	next, err := ApplyOperations(state, []Operation{op}, []*Chunk{summary}, "compaction")
	if err != nil {
		return nil, nil, err
	}

	tokensAfter := CountChunkTokens(m.tokenizer, summary)
	event := &CompactionEvent{
		ThreadID:       state.ThreadID,
		TokensBefore:   tokensBefore,
		TokensAfter:    tokensAfter,
		ChunksReplaced: len(chunks),
		Summary:        summary,
	}
	return next, event, nil
}

// ExecuteTruncation deletes the given chunk ids and applies atomically.
func (m *CompactionManager) ExecuteTruncation(state *State, chunkIDs []string) (*State, error) {
	ops := make([]Operation, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		ops = append(ops, DeleteOp(id))
	}
	return ApplyOperations(state, ops, nil, "truncation")
}

// findTaskGoal returns best-effort task-goal text from SYSTEM/DELEGATION
// chunks.
func findTaskGoal(state *State) string {
	for _, c := range state.OrderedChunks() {
		if c.Type == ChunkTypeSystem || c.Type == ChunkTypeDelegation {
			if text := Text(c.Content); text != "" {
				return text
			}
		}
	}
	return ""
}

// findProgressSummary returns best-effort progress-summary text from an
// existing COMPACTED chunk, preferring the most recent one.
func findProgressSummary(state *State) string {
	chunks := state.OrderedChunks()
	for i := len(chunks) - 1; i >= 0; i-- {
		if chunks[i].Type == ChunkTypeCompacted {
			if text := Text(chunks[i].Content); text != "" {
				return text
			}
		}
	}
	return ""
}
