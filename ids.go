package memoryruntime

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID prefixes, one per identity kind. IDs are opaque strings;
// callers must never attempt to derive ordering or metadata from them.
const (
	idPrefixChunk    = "chunk"
	idPrefixChild    = "child"
	idPrefixState    = "state"
	idPrefixThread   = "thread"
	idPrefixOp       = "op"
	idPrefixSnapshot = "snapshot"
	idPrefixStep     = "step"
)

// newID returns a new identifier "{prefix}_{opaque}" where opaque is 128
// bits of crypto/rand hex-encoded, comfortably over the 122-bit
// collision-resistance floor.
func newID(prefix string) string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("memoryruntime: failed to generate id: %w", err))
	}
	return prefix + "_" + hex.EncodeToString(buf)
}

func newChunkID() string    { return newID(idPrefixChunk) }
func newChildID() string    { return newID(idPrefixChild) }
func newStateID() string    { return newID(idPrefixState) }
func newThreadID() string   { return newID(idPrefixThread) }
func newOpID() string       { return newID(idPrefixOp) }
func newSnapshotID() string { return newID(idPrefixSnapshot) }
func newStepID() string     { return newID(idPrefixStep) }
