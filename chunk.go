package memoryruntime

import (
	"encoding/json"
	"time"
)

// ChunkType is the closed enumeration of memory chunk kinds.
type ChunkType string

const (
	ChunkTypeSystem          ChunkType = "SYSTEM"
	ChunkTypeAgent           ChunkType = "AGENT"
	ChunkTypeWorkflow        ChunkType = "WORKFLOW"
	ChunkTypeDelegation      ChunkType = "DELEGATION"
	ChunkTypeEnvironment     ChunkType = "ENVIRONMENT"
	ChunkTypeWorkingHistory  ChunkType = "WORKING_HISTORY"
	ChunkTypeOutput          ChunkType = "OUTPUT"
	ChunkTypeUserMessage     ChunkType = "USER_MESSAGE"
	ChunkTypeAgentResponse   ChunkType = "AGENT_RESPONSE"
	ChunkTypeAgentAction     ChunkType = "AGENT_ACTION"
	ChunkTypeActionResponse  ChunkType = "ACTION_RESPONSE"
	ChunkTypeThinking        ChunkType = "THINKING"
	ChunkTypeSubagentSpawn   ChunkType = "SUBAGENT_SPAWN"
	ChunkTypeSubagentResult  ChunkType = "SUBAGENT_RESULT"
	ChunkTypeParentMessage   ChunkType = "PARENT_MESSAGE"
	ChunkTypeCompacted       ChunkType = "COMPACTED"
)

// RetentionStrategy governs whether and how a chunk may be removed from
// memory under token pressure.
type RetentionStrategy string

const (
	// RetentionCritical chunks are never compacted or truncated.
	RetentionCritical RetentionStrategy = "CRITICAL"

	// RetentionCompressible chunks may be summarized away individually.
	RetentionCompressible RetentionStrategy = "COMPRESSIBLE"

	// RetentionBatchCompressible chunks are summarized together as a batch.
	RetentionBatchCompressible RetentionStrategy = "BATCH_COMPRESSIBLE"

	// RetentionDisposable chunks may be truncated (deleted outright) without
	// being summarized.
	RetentionDisposable RetentionStrategy = "DISPOSABLE"
)

// defaultRetention returns the type-driven default retention strategy,
// which an explicit option can override.
func defaultRetention(t ChunkType) RetentionStrategy {
	switch t {
	case ChunkTypeSystem, ChunkTypeDelegation, ChunkTypeOutput, ChunkTypeParentMessage:
		return RetentionCritical
	case ChunkTypeCompacted:
		return RetentionCompressible
	case ChunkTypeWorkingHistory:
		return RetentionBatchCompressible
	case ChunkTypeThinking:
		return RetentionDisposable
	default:
		return RetentionCompressible
	}
}

// defaultMutable returns the type-driven default mutability.
func defaultMutable(t ChunkType) bool {
	switch t {
	case ChunkTypeWorkingHistory:
		return true
	default:
		return false
	}
}

// defaultPriority returns the type-driven default ordering hint stored in
// Chunk.Priority. Truncation selection orders chunks by creation time and
// does not read it.
func defaultPriority(t ChunkType) int {
	switch t {
	case ChunkTypeSystem, ChunkTypeDelegation:
		return 0
	case ChunkTypeOutput, ChunkTypeParentMessage:
		return 10
	case ChunkTypeWorkingHistory:
		return 50
	case ChunkTypeCompacted:
		return 40
	default:
		return 100
	}
}

// ChunkMetadata carries provenance and free-form application data for a
// Chunk.
type ChunkMetadata struct {
	CreatedAt       time.Time      `json:"createdAt"`
	SourceOperation string         `json:"sourceOperation,omitempty"`
	Custom          map[string]any `json:"custom,omitempty"`
}

// Chunk is the atomic, immutable unit of agent memory. Once
// constructed via NewChunk/DeriveChunk, a Chunk's fields must never be
// mutated; "editing" a chunk means deriving a new one with ParentIDs
// pointing at the original.
type Chunk struct {
	ID                string            `json:"id"`
	Type              ChunkType         `json:"type"`
	Content           Content           `json:"content"`
	RetentionStrategy RetentionStrategy `json:"retentionStrategy"`
	Mutable           bool              `json:"mutable"`
	Priority          int               `json:"priority"`
	ParentIDs         []string          `json:"parentIds,omitempty"`
	ChildIDs          []string          `json:"childIds,omitempty"`
	Metadata          ChunkMetadata     `json:"metadata"`
}

// ChunkOption customizes a chunk at construction time, overriding the
// type-driven defaults.
type ChunkOption func(*Chunk)

// WithRetention overrides the default retention strategy for the type.
func WithRetention(r RetentionStrategy) ChunkOption {
	return func(c *Chunk) { c.RetentionStrategy = r }
}

// WithMutable overrides the default mutability for the type.
func WithMutable(m bool) ChunkOption {
	return func(c *Chunk) { c.Mutable = m }
}

// WithPriority overrides the default priority for the type.
func WithPriority(p int) ChunkOption {
	return func(c *Chunk) { c.Priority = p }
}

// WithParentIDs sets the lineage of this chunk.
func WithParentIDs(ids ...string) ChunkOption {
	return func(c *Chunk) { c.ParentIDs = append([]string(nil), ids...) }
}

// WithChildIDs sets the ordered children of a container chunk.
func WithChildIDs(ids ...string) ChunkOption {
	return func(c *Chunk) { c.ChildIDs = append([]string(nil), ids...) }
}

// WithSourceOperation tags the chunk with the operation id that produced it.
func WithSourceOperation(opID string) ChunkOption {
	return func(c *Chunk) { c.Metadata.SourceOperation = opID }
}

// WithCustomMetadata merges key/value pairs into the chunk's custom
// metadata map.
func WithCustomMetadata(kv map[string]any) ChunkOption {
	return func(c *Chunk) {
		if c.Metadata.Custom == nil {
			c.Metadata.Custom = make(map[string]any, len(kv))
		}
		for k, v := range kv {
			c.Metadata.Custom[k] = v
		}
	}
}

// NewChunk constructs a chunk with stable id and type-driven defaults,
// applying any options, then seals it: the returned value must not be
// mutated further.
func NewChunk(typ ChunkType, content Content, opts ...ChunkOption) *Chunk {
	c := &Chunk{
		ID:                newChunkID(),
		Type:              typ,
		Content:           content,
		RetentionStrategy: defaultRetention(typ),
		Mutable:           defaultMutable(typ),
		Priority:          defaultPriority(typ),
		Metadata:          ChunkMetadata{CreatedAt: nowFunc()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeriveChunk builds a new chunk from an existing one, copying its type,
// retention, mutability and priority unless overridden, and setting
// ParentIDs to [original.ID]. Chunks are never mutated in place, only
// superseded.
func DeriveChunk(original *Chunk, content Content, opts ...ChunkOption) *Chunk {
	c := &Chunk{
		ID:                newChunkID(),
		Type:              original.Type,
		Content:           content,
		RetentionStrategy: original.RetentionStrategy,
		Mutable:           original.Mutable,
		Priority:          original.Priority,
		ParentIDs:         []string{original.ID},
		Metadata:          ChunkMetadata{CreatedAt: nowFunc()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy returns a deep copy of the chunk, used wherever a chunk crosses a
// mutation boundary (snapshot materialization, fork) without risking
// aliasing into the original's slices/maps.
func (c *Chunk) Copy() *Chunk {
	out := *c
	out.Content = c.Content.Copy()
	out.ParentIDs = append([]string(nil), c.ParentIDs...)
	out.ChildIDs = append([]string(nil), c.ChildIDs...)
	if c.Metadata.Custom != nil {
		out.Metadata.Custom = make(map[string]any, len(c.Metadata.Custom))
		for k, v := range c.Metadata.Custom {
			out.Metadata.Custom[k] = v
		}
	}
	return &out
}

// nowFunc is indirected so tests can pin clock behavior without a
// dependency on wall-clock time; reducers themselves never call this and
// rely solely on Event.Timestamp.
var nowFunc = time.Now

// chunkJSON is the wire shape of a Chunk, with Content carried as a tagged
// envelope (see MarshalContent/UnmarshalContent) instead of relying on
// encoding/json's default interface handling, which would drop the
// variant's type discriminator entirely.
type chunkJSON struct {
	ID                string          `json:"id"`
	Type              ChunkType       `json:"type"`
	Content           json.RawMessage `json:"content"`
	RetentionStrategy RetentionStrategy `json:"retentionStrategy"`
	Mutable           bool              `json:"mutable"`
	Priority          int               `json:"priority"`
	ParentIDs         []string          `json:"parentIds,omitempty"`
	ChildIDs          []string          `json:"childIds,omitempty"`
	Metadata          ChunkMetadata     `json:"metadata"`
}

// MarshalJSON serializes the chunk with its content tagged by variant, so
// round-tripping through storage or a snapshot file never loses the
// TEXT/STRUCTURED/MIXED discriminator.
func (c *Chunk) MarshalJSON() ([]byte, error) {
	contentRaw, err := MarshalContent(c.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chunkJSON{
		ID:                c.ID,
		Type:              c.Type,
		Content:           contentRaw,
		RetentionStrategy: c.RetentionStrategy,
		Mutable:           c.Mutable,
		Priority:          c.Priority,
		ParentIDs:         c.ParentIDs,
		ChildIDs:          c.ChildIDs,
		Metadata:          c.Metadata,
	})
}

// UnmarshalJSON parses a chunk produced by MarshalJSON, resolving its
// tagged content back into the correct Content variant.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var aux chunkJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	content, err := UnmarshalContent(aux.Content)
	if err != nil {
		return err
	}
	c.ID = aux.ID
	c.Type = aux.Type
	c.Content = content
	c.RetentionStrategy = aux.RetentionStrategy
	c.Mutable = aux.Mutable
	c.Priority = aux.Priority
	c.ParentIDs = aux.ParentIDs
	c.ChildIDs = aux.ChildIDs
	c.Metadata = aux.Metadata
	return nil
}
