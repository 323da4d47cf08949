package memoryruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubagentRegistryRegisterGetList(t *testing.T) {
	r := NewSubagentRegistry(true)
	_, ok := r.Get("general-purpose")
	require.True(t, ok)

	r.Register("researcher", &SubagentDefinition{Description: "finds things", Tools: []string{"search"}})
	def, ok := r.Get("researcher")
	require.True(t, ok)
	assert.Equal(t, "finds things", def.Description)
	assert.Equal(t, []string{"general-purpose", "researcher"}, r.List())
	assert.Equal(t, 2, r.Len())
}

func TestSubagentRegistryGenerateToolDescriptionListsAllSorted(t *testing.T) {
	r := NewSubagentRegistry(false)
	r.Register("b-agent", &SubagentDefinition{Description: "second"})
	r.Register("a-agent", &SubagentDefinition{Description: "first"})

	desc := r.GenerateToolDescription()
	assert.Contains(t, desc, "a-agent: first")
	assert.Contains(t, desc, "b-agent: second")
	assert.Less(t, indexOfSubstr(desc, "a-agent"), indexOfSubstr(desc, "b-agent"))
}

func indexOfSubstr(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestFilterToolsRestrictsAndExcludesSpawnTool(t *testing.T) {
	def := &SubagentDefinition{Tools: []string{"search", "read"}}
	all := []string{"search", "read", "write", "Task"}

	got := FilterTools(def, all, "Task")
	assert.Equal(t, []string{"search", "read"}, got)
}

func TestFilterToolsInheritsAllWhenUnset(t *testing.T) {
	def := &SubagentDefinition{}
	all := []string{"search", "Task"}

	got := FilterTools(def, all, "Task")
	assert.Equal(t, []string{"search"}, got)
}

func TestSubagentRegistryOnSubagentSpawnRecordsResolvedAndUnresolved(t *testing.T) {
	r := NewSubagentRegistry(false)
	r.Register("researcher", &SubagentDefinition{Description: "x"})

	thread := &Thread{ID: "t1"}
	qe := QueuedEvent{Event: Event{Type: EventSubagentSpawn, Payload: map[string]any{
		"subagentName": "researcher",
		"task":         "dig up facts",
	}}}
	r.OnSubagentSpawn(context.Background(), thread, "state1", qe)

	entries, ok := thread.Metadata.Custom[subagentInvocationsKey].([]SubagentInvocation)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "researcher", entries[0].SubagentName)
	assert.True(t, entries[0].Resolved)

	qe2 := QueuedEvent{Event: Event{Type: EventSubagentSpawn, Payload: map[string]any{
		"subagentName": "unknown-agent",
	}}}
	r.OnSubagentSpawn(context.Background(), thread, "state2", qe2)

	entries, ok = thread.Metadata.Custom[subagentInvocationsKey].([]SubagentInvocation)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.False(t, entries[1].Resolved)
}
