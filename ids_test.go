package memoryruntime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDHasPrefixAndIsUnique(t *testing.T) {
	a := newID("chunk")
	b := newID("chunk")

	assert.True(t, strings.HasPrefix(a, "chunk_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimPrefix(a, "chunk_"), 32, "128 bits hex-encoded is 32 characters")
}

func TestIDHelpersUseDistinctPrefixes(t *testing.T) {
	cases := map[string]func() string{
		"chunk_":    newChunkID,
		"child_":    newChildID,
		"state_":    newStateID,
		"thread_":   newThreadID,
		"op_":       newOpID,
		"snapshot_": newSnapshotID,
		"step_":     newStepID,
	}
	for prefix, fn := range cases {
		assert.True(t, strings.HasPrefix(fn(), prefix), "expected prefix %q", prefix)
	}
}
