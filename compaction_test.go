package memoryruntime

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/memoryruntime/tokenizer"
)

type fakeCompactor struct {
	canHandle bool
	summary   *Chunk
	err       error
}

func (f *fakeCompactor) CanCompact(chunks []*Chunk) bool { return f.canHandle }

func (f *fakeCompactor) Compact(_ context.Context, cc CompactionContext) (*Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func bigTextChunk(retention RetentionStrategy, size int) *Chunk {
	return NewChunk(ChunkTypeWorkingHistory, &TextContent{Text: strings.Repeat("x", size)}, WithRetention(retention))
}

func TestCheckTokenUsageClassification(t *testing.T) {
	tok := tokenizer.New("char-count")
	cfg := CompactionConfig{SoftThreshold: 10, HardThreshold: 20, TruncationThreshold: 30}
	m := NewCompactionManager(cfg, tok, nil)

	state := NewEmptyState("t1")

	check := m.CheckTokenUsage(state)
	assert.Equal(t, UsageNoAction, check.Classification)

	c := bigTextChunk(RetentionCompressible, 48) // 48/4 = 12 tokens -> soft warning
	state.Chunks[c.ID] = c
	state.ChunkIDs = []string{c.ID}
	check = m.CheckTokenUsage(state)
	assert.Equal(t, UsageSoftWarning, check.Classification)
}

func TestCheckTokenUsageForceCompactionOnlyTargetsCompactableChunks(t *testing.T) {
	tok := tokenizer.New("char-count")
	cfg := CompactionConfig{SoftThreshold: 1, HardThreshold: 2, TruncationThreshold: 1000}
	m := NewCompactionManager(cfg, tok, nil)

	state := NewEmptyState("t1")
	critical := bigTextChunk(RetentionCritical, 40)
	compactable := bigTextChunk(RetentionCompressible, 40)
	state.Chunks[critical.ID] = critical
	state.Chunks[compactable.ID] = compactable
	state.ChunkIDs = []string{critical.ID, compactable.ID}

	check := m.CheckTokenUsage(state)
	require.Equal(t, UsageForceCompaction, check.Classification)
	require.Len(t, check.ChunksToCompact, 1)
	assert.Equal(t, compactable.ID, check.ChunksToCompact[0].ID)
}

func TestCheckTokenUsageNeedsTruncationSelectsOldestFirst(t *testing.T) {
	tok := tokenizer.New("char-count")
	cfg := CompactionConfig{SoftThreshold: 1, HardThreshold: 2, TruncationThreshold: 5}
	m := NewCompactionManager(cfg, tok, nil)

	state := NewEmptyState("t1")
	older := bigTextChunk(RetentionDisposable, 40)
	older.Metadata.CreatedAt = older.Metadata.CreatedAt.Add(-1)
	newer := bigTextChunk(RetentionDisposable, 40)
	state.Chunks[older.ID] = older
	state.Chunks[newer.ID] = newer
	state.ChunkIDs = []string{older.ID, newer.ID}

	check := m.CheckTokenUsage(state)
	require.Equal(t, UsageNeedsTruncation, check.Classification)
	require.NotEmpty(t, check.ChunksToTruncate)
	assert.Equal(t, older.ID, check.ChunksToTruncate[0])
}

func TestExecuteCompactionUsesFirstCapableCompactor(t *testing.T) {
	tok := tokenizer.New("char-count")
	m := NewCompactionManager(DefaultCompactionConfig(), tok, nil)

	summary := NewChunk(ChunkTypeCompacted, &TextContent{Text: "summary"})
	m.RegisterCompactor(&fakeCompactor{canHandle: false})
	m.RegisterCompactor(&fakeCompactor{canHandle: true, summary: summary})

	state := NewEmptyState("t1")
	c := bigTextChunk(RetentionCompressible, 40)
	state.Chunks[c.ID] = c
	state.ChunkIDs = []string{c.ID}

	next, event, err := m.ExecuteCompaction(context.Background(), state, []*Chunk{c})
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, 1, event.ChunksReplaced)
	assert.Equal(t, []string{summary.ID}, next.ChunkIDs)
}

func TestExecuteCompactionErrorsWithNoCapableCompactor(t *testing.T) {
	tok := tokenizer.New("char-count")
	m := NewCompactionManager(DefaultCompactionConfig(), tok, nil)
	m.RegisterCompactor(&fakeCompactor{canHandle: false})

	state := NewEmptyState("t1")
	c := bigTextChunk(RetentionCompressible, 40)
	_, _, err := m.ExecuteCompaction(context.Background(), state, []*Chunk{c})
	require.Error(t, err)
	var cErr *CompactorError
	assert.ErrorAs(t, err, &cErr)
}

func TestExecuteTruncationDeletesChunks(t *testing.T) {
	tok := tokenizer.New("char-count")
	m := NewCompactionManager(DefaultCompactionConfig(), tok, nil)

	state := NewEmptyState("t1")
	c := bigTextChunk(RetentionDisposable, 10)
	state.Chunks[c.ID] = c
	state.ChunkIDs = []string{c.ID}

	next, err := m.ExecuteTruncation(state, []string{c.ID})
	require.NoError(t, err)
	assert.Empty(t, next.ChunkIDs)
}

func TestCheckTokenUsageCountsChildrenOfWorkingHistoryContainer(t *testing.T) {
	tok := tokenizer.New("char-count")
	cfg := CompactionConfig{SoftThreshold: 1, HardThreshold: 100, TruncationThreshold: 1000}
	m := NewCompactionManager(cfg, tok, nil)

	state := NewEmptyState("t1")
	container := NewChunk(ChunkTypeWorkingHistory, &StructuredContent{Fields: map[string]any{}})
	leaf := NewChunk(ChunkTypeUserMessage, &TextContent{Text: strings.Repeat("x", 40)})
	container.ChildIDs = []string{leaf.ID}
	state.Chunks[container.ID] = container
	state.Chunks[leaf.ID] = leaf
	state.ChunkIDs = []string{container.ID}

	check := m.CheckTokenUsage(state)
	assert.Equal(t, 10, check.TotalTokens, "container's own content is empty; its token weight comes from its children")
}
