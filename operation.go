package memoryruntime

import "time"

// OperationType is the closed set of declarative edits a reducer may
// produce.
type OperationType string

const (
	OpAdd          OperationType = "ADD"
	OpDelete       OperationType = "DELETE"
	OpUpdate       OperationType = "UPDATE"
	OpBatchReplace OperationType = "BATCH_REPLACE"
	OpAddChild     OperationType = "ADD_CHILD"
)

// Operation is a declarative instruction produced by a reducer; it is not
// itself a state mutation. StateTransition interprets operations in order
// to compute a successor State.
type Operation struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Type      OperationType `json:"type"`

	// ChunkID is populated for ADD and DELETE.
	ChunkID string `json:"chunkId,omitempty"`
	// Chunk is populated for ADD, UPDATE (new chunk), and BATCH_REPLACE
	// (new chunk).
	Chunk *Chunk `json:"chunk,omitempty"`

	// OldChunkID is populated for UPDATE.
	OldChunkID string `json:"oldChunkId,omitempty"`

	// OldChunkIDs is populated for BATCH_REPLACE.
	OldChunkIDs []string `json:"oldChunkIds,omitempty"`

	// ParentID and Child are populated for ADD_CHILD.
	ParentID string `json:"parentId,omitempty"`
	Child    *Chunk `json:"child,omitempty"`
}

func newOperation(typ OperationType) Operation {
	return Operation{ID: newOpID(), Timestamp: nowFunc(), Type: typ}
}

// AddOp produces an ADD operation inserting c into the state.
func AddOp(c *Chunk) Operation {
	op := newOperation(OpAdd)
	op.ChunkID = c.ID
	op.Chunk = c
	return op
}

// DeleteOp produces a DELETE operation removing chunkID from the state.
func DeleteOp(chunkID string) Operation {
	op := newOperation(OpDelete)
	op.ChunkID = chunkID
	return op
}

// UpdateOp produces an UPDATE operation replacing oldID with newChunk,
// preserving position in ChunkIDs.
func UpdateOp(oldID string, newChunk *Chunk) Operation {
	op := newOperation(OpUpdate)
	op.OldChunkID = oldID
	op.Chunk = newChunk
	return op
}

// BatchReplaceOp produces a BATCH_REPLACE operation replacing every id in
// oldIDs with a single newChunk, inserted at the position of the first old
// id.
func BatchReplaceOp(oldIDs []string, newChunk *Chunk) Operation {
	op := newOperation(OpBatchReplace)
	op.OldChunkIDs = append([]string(nil), oldIDs...)
	op.Chunk = newChunk
	return op
}

// AddChildOp produces an ADD_CHILD operation appending child to parentID's
// ChildIDs. This runtime models WORKING_HISTORY children as separate chunk
// records rather than an embedded children[] slice, so reducers use this
// operation rather than rewriting the parent chunk's ChildIDs via UPDATE.
func AddChildOp(parentID string, child *Chunk) Operation {
	op := newOperation(OpAddChild)
	op.ParentID = parentID
	op.Child = child
	return op
}

// ReducerResult is what a Reducer returns: the operations to apply plus any
// newly-constructed chunks referenced by those operations.
// Chunks is kept distinct from the operations themselves so a registry can
// validate that every operation's chunk reference is backed by a
// constructed chunk before StateTransition ever sees it.
type ReducerResult struct {
	Operations []Operation
	Chunks     []*Chunk
}

// Empty reports whether this result has no effect.
func (r ReducerResult) Empty() bool {
	return len(r.Operations) == 0
}
