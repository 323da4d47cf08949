package memoryruntime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SubagentDefinition describes a specialized subagent a SUBAGENT_SPAWN event
// may invoke: its briefing prompt, the tool subset it is restricted to, and
// an optional model override.
type SubagentDefinition struct {
	// Description explains when this subagent should be used; surfaced via
	// GenerateToolDescription for inclusion in a Task-tool-style prompt.
	Description string

	// Prompt is the system prompt seeding the subagent's own thread.
	Prompt string

	// Tools restricts which tool names the subagent may use. Nil or empty
	// means "inherit the parent thread's tools".
	Tools []string

	// Model overrides the LLM model for the subagent; empty inherits the
	// parent thread's LLMConfig.
	Model string
}

// GeneralPurposeSubagent is the default subagent definition, usable for any
// task when no specialized definition matches.
var GeneralPurposeSubagent = &SubagentDefinition{
	Description: "General-purpose subagent for multi-step tasks when no specialized subagent matches.",
	Prompt:      "Work through the delegated task step by step and report a clear summary of the result.",
}

// SubagentRegistry resolves SUBAGENT_SPAWN events against a set of named
// definitions and records each spawn onto the parent thread's metadata for
// audit/debugging, implementing SubagentSpawnObserver.
type SubagentRegistry struct {
	mu     sync.RWMutex
	agents map[string]*SubagentDefinition
}

// NewSubagentRegistry constructs an empty registry, optionally seeding the
// "general-purpose" definition.
func NewSubagentRegistry(includeGeneralPurpose bool) *SubagentRegistry {
	r := &SubagentRegistry{agents: make(map[string]*SubagentDefinition)}
	if includeGeneralPurpose {
		r.agents["general-purpose"] = GeneralPurposeSubagent
	}
	return r
}

// Register adds or replaces a definition under name.
func (r *SubagentRegistry) Register(name string, def *SubagentDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[name] = def
}

// RegisterAll adds or replaces multiple definitions at once.
func (r *SubagentRegistry) RegisterAll(defs map[string]*SubagentDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, def := range defs {
		r.agents[name] = def
	}
}

// Get retrieves a definition by name.
func (r *SubagentRegistry) Get(name string) (*SubagentDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.agents[name]
	return def, ok
}

// List returns registered subagent names in sorted order.
func (r *SubagentRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered definitions.
func (r *SubagentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// GenerateToolDescription renders a human-readable listing of registered
// subagents, suitable for embedding in a delegation-tool's own description.
func (r *SubagentRegistry) GenerateToolDescription() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.agents) == 0 {
		return ""
	}

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Available subagent types:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, r.agents[name].Description))
	}
	return sb.String()
}

// FilterTools narrows allTools down to those a subagent definition permits.
// A nil/empty def.Tools means "inherit everything"; either way delegation
// tools named in excludeNames (typically the spawning tool itself) are
// always stripped, to prevent a subagent from re-spawning subagents.
func FilterTools(def *SubagentDefinition, allTools []string, excludeNames ...string) []string {
	excluded := make(map[string]bool, len(excludeNames))
	for _, n := range excludeNames {
		excluded[n] = true
	}

	var allowed map[string]bool
	if len(def.Tools) > 0 {
		allowed = make(map[string]bool, len(def.Tools))
		for _, n := range def.Tools {
			allowed[n] = true
		}
	}

	result := make([]string, 0, len(allTools))
	for _, name := range allTools {
		if excluded[name] {
			continue
		}
		if allowed != nil && !allowed[name] {
			continue
		}
		result = append(result, name)
	}
	return result
}

// SubagentInvocation is an audit record of a resolved SUBAGENT_SPAWN event,
// appended to the parent thread's metadata.
type SubagentInvocation struct {
	SubagentName  string `json:"subagentName"`
	Task          string `json:"task"`
	ParentStateID string `json:"parentStateId"`
	Resolved      bool   `json:"resolved"`
}

const subagentInvocationsKey = "subagentInvocations"

// OnSubagentSpawn implements SubagentSpawnObserver: it resolves the spawn's
// "subagentName" payload field against the registry and records an audit
// entry in thread.Metadata.Custom. The caller is responsible for persisting
// the thread afterward. An unresolved name (no matching definition) is
// still recorded, marked unresolved, since the spawn chunk itself was
// already committed by the reducer; this observer only tracks delegation
// provenance, it does not veto it.
func (r *SubagentRegistry) OnSubagentSpawn(ctx context.Context, thread *Thread, parentStateID string, qe QueuedEvent) {
	name := qe.Event.PayloadString("subagentName")
	_, resolved := r.Get(name)

	entry := SubagentInvocation{
		SubagentName:  name,
		Task:          qe.Event.PayloadString("task"),
		ParentStateID: parentStateID,
		Resolved:      resolved,
	}

	if thread.Metadata.Custom == nil {
		thread.Metadata.Custom = map[string]any{}
	}
	existing, _ := thread.Metadata.Custom[subagentInvocationsKey].([]SubagentInvocation)
	thread.Metadata.Custom[subagentInvocationsKey] = append(existing, entry)
}

var _ SubagentSpawnObserver = (*SubagentRegistry)(nil)
