package memoryruntime

import "fmt"

// ApplyOperations computes the successor State from prev by interpreting
// each operation in order. The input state is never mutated; a fresh
// State is returned. If any operation references a chunk id that neither
// exists in prev nor was supplied in newChunks, an InvariantError is
// returned and no partial state is produced.
func ApplyOperations(prev *State, ops []Operation, newChunks []*Chunk, sourceOp string) (*State, error) {
	next := prev.Copy()
	next.ID = newStateID()
	next.Metadata = StateMetadata{
		PreviousStateID: prev.ID,
		SourceOperation: sourceOp,
		Provenance:      map[string]any{},
	}

	chunkPool := make(map[string]*Chunk, len(newChunks))
	for _, c := range newChunks {
		chunkPool[c.ID] = c
	}

	for _, op := range ops {
		if err := applyOne(next, op, chunkPool); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func applyOne(s *State, op Operation, pool map[string]*Chunk) error {
	switch op.Type {
	case OpAdd:
		c := resolveChunk(op.Chunk, op.ChunkID, pool)
		if c == nil {
			return &InvariantError{Op: "ADD", Detail: "missing chunk", ChunkID: op.ChunkID}
		}
		s.Chunks[c.ID] = c
		s.ChunkIDs = append(s.ChunkIDs, c.ID)
		return nil

	case OpDelete:
		if _, ok := s.Chunks[op.ChunkID]; !ok {
			return &InvariantError{Op: "DELETE", Detail: "chunk not present", ChunkID: op.ChunkID}
		}
		if idx := indexOf(s.ChunkIDs, op.ChunkID); idx >= 0 {
			s.ChunkIDs = removeID(s.ChunkIDs, op.ChunkID)
		} else if parent, ok := findParentOf(s, op.ChunkID); ok {
			updatedParent := parent.Copy()
			updatedParent.ChildIDs = removeID(updatedParent.ChildIDs, op.ChunkID)
			s.Chunks[parent.ID] = updatedParent
		}
		delete(s.Chunks, op.ChunkID)
		return nil

	case OpUpdate:
		c := resolveChunk(op.Chunk, "", pool)
		if c == nil {
			return &InvariantError{Op: "UPDATE", Detail: "missing replacement chunk", ChunkID: op.OldChunkID}
		}
		if idx := indexOf(s.ChunkIDs, op.OldChunkID); idx >= 0 {
			delete(s.Chunks, op.OldChunkID)
			s.Chunks[c.ID] = c
			s.ChunkIDs[idx] = c.ID
			return nil
		}
		if parent, ok := findParentOf(s, op.OldChunkID); ok {
			updatedParent := parent.Copy()
			childIdx := indexOf(updatedParent.ChildIDs, op.OldChunkID)
			updatedParent.ChildIDs[childIdx] = c.ID
			s.Chunks[parent.ID] = updatedParent
			delete(s.Chunks, op.OldChunkID)
			s.Chunks[c.ID] = c
			return nil
		}
		return &InvariantError{Op: "UPDATE", Detail: "old chunk not present", ChunkID: op.OldChunkID}

	case OpBatchReplace:
		firstIdx := -1
		for _, oldID := range op.OldChunkIDs {
			if _, ok := s.Chunks[oldID]; !ok {
				return &InvariantError{Op: "BATCH_REPLACE", Detail: "old chunk not present", ChunkID: oldID}
			}
			if idx := indexOf(s.ChunkIDs, oldID); firstIdx < 0 || idx < firstIdx {
				firstIdx = idx
			}
		}
		c := resolveChunk(op.Chunk, "", pool)
		if c == nil {
			return &InvariantError{Op: "BATCH_REPLACE", Detail: "missing replacement chunk"}
		}
		for _, oldID := range op.OldChunkIDs {
			delete(s.Chunks, oldID)
			s.ChunkIDs = removeID(s.ChunkIDs, oldID)
		}
		s.Chunks[c.ID] = c
		if firstIdx < 0 || firstIdx > len(s.ChunkIDs) {
			s.ChunkIDs = append(s.ChunkIDs, c.ID)
		} else {
			s.ChunkIDs = append(s.ChunkIDs[:firstIdx], append([]string{c.ID}, s.ChunkIDs[firstIdx:]...)...)
		}
		return nil

	case OpAddChild:
		parent, ok := s.Chunks[op.ParentID]
		if !ok {
			return &InvariantError{Op: "ADD_CHILD", Detail: "parent chunk not present", ChunkID: op.ParentID}
		}
		child := resolveChunk(op.Child, "", pool)
		if child == nil {
			return &InvariantError{Op: "ADD_CHILD", Detail: "missing child chunk", ChunkID: op.ParentID}
		}
		updatedParent := parent.Copy()
		updatedParent.ChildIDs = append(updatedParent.ChildIDs, child.ID)
		s.Chunks[parent.ID] = updatedParent
		s.Chunks[child.ID] = child
		return nil

	default:
		return fmt.Errorf("memoryruntime: unknown operation type %q", op.Type)
	}
}

// resolveChunk prefers the operation's own embedded Chunk, falling back to
// the pool of chunks supplied alongside the ReducerResult, keyed by id.
func resolveChunk(embedded *Chunk, id string, pool map[string]*Chunk) *Chunk {
	if embedded != nil {
		return embedded
	}
	if id == "" {
		return nil
	}
	return pool[id]
}

// findParentOf scans every chunk currently in s for one whose ChildIDs
// contains chunkID, used by DELETE/UPDATE to locate a leaf chunk that lives
// only inside a container's ChildIDs rather than as a top-level ChunkIDs
// entry.
func findParentOf(s *State, chunkID string) (*Chunk, bool) {
	for _, c := range s.Chunks {
		for _, childID := range c.ChildIDs {
			if childID == chunkID {
				return c, true
			}
		}
	}
	return nil, false
}

func indexOf(ids []string, target string) int {
	for i, id := range ids {
		if id == target {
			return i
		}
	}
	return -1
}

func removeID(ids []string, target string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
