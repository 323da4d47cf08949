package memoryruntime

import "github.com/agentcore/memoryruntime/tokenizer"

// Tokenizer is the package alias for tokenizer.Tokenizer, so callers
// building a CompactionManager don't need to import the tokenizer package
// directly just to spell the collaborator type.
type Tokenizer = tokenizer.Tokenizer

// CountChunkTokens sums the token count of a chunk's best-effort plain-text
// rendering, used throughout CompactionManager's budget bookkeeping.
func CountChunkTokens(tok Tokenizer, c *Chunk) int {
	return tok.CountTokens(Text(c.Content))
}

// CountChunksTokens sums CountChunkTokens over a slice of chunks.
func CountChunksTokens(tok Tokenizer, chunks []*Chunk) int {
	total := 0
	for _, c := range chunks {
		total += CountChunkTokens(tok, c)
	}
	return total
}
