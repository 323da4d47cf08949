package memoryruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionModeControllerDefaultsToAuto(t *testing.T) {
	c := NewExecutionModeController()
	assert.Equal(t, ModeAuto, c.Mode("t1"))
}

func TestExecutionModeControllerSetMode(t *testing.T) {
	c := NewExecutionModeController()
	c.SetMode("t1", ModeStepping)
	assert.Equal(t, ModeStepping, c.Mode("t1"))
	assert.Equal(t, ModeAuto, c.Mode("t2"), "other threads unaffected")
}

func TestExecutionModeControllerPendingCompactionReadAndClear(t *testing.T) {
	c := NewExecutionModeController()
	assert.False(t, c.HasPendingCompaction("t1"))

	chunk := NewChunk(ChunkTypeUserMessage, &TextContent{Text: "x"})
	c.SetPendingCompaction("t1", []*Chunk{chunk})
	assert.True(t, c.HasPendingCompaction("t1"))

	got := c.ConsumePendingCompaction("t1")
	assert.Equal(t, []*Chunk{chunk}, got)
	assert.False(t, c.HasPendingCompaction("t1"), "consuming must clear the slot")
	assert.Nil(t, c.ConsumePendingCompaction("t1"))
}

func TestExecutionModeControllerPendingTruncationReadAndClear(t *testing.T) {
	c := NewExecutionModeController()
	c.SetPendingTruncation("t1", []string{"c1", "c2"})
	assert.True(t, c.HasPendingTruncation("t1"))

	got := c.ConsumePendingTruncation("t1")
	assert.Equal(t, []string{"c1", "c2"}, got)
	assert.False(t, c.HasPendingTruncation("t1"))
}

func TestExecutionModeControllerForgetClearsAllState(t *testing.T) {
	c := NewExecutionModeController()
	c.SetMode("t1", ModeStepping)
	c.SetPendingCompaction("t1", []*Chunk{NewChunk(ChunkTypeUserMessage, &TextContent{Text: "x"})})

	c.Forget("t1")

	assert.Equal(t, ModeAuto, c.Mode("t1"))
	assert.False(t, c.HasPendingCompaction("t1"))
}
