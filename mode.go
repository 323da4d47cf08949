package memoryruntime

import "sync"

// ExecutionMode is a thread's auto vs. stepping flag.
type ExecutionMode string

const (
	ModeAuto     ExecutionMode = "auto"
	ModeStepping ExecutionMode = "stepping"
)

// pendingOps is the per-thread slot for operations the processor detected
// but did not execute.
type pendingOps struct {
	compaction  []*Chunk
	truncation  []string
}

// ExecutionModeController tracks per-thread mode and pending compaction /
// truncation slots. It does no I/O and holds no references beyond the
// orchestrator's lifetime.
type ExecutionModeController struct {
	mu      sync.Mutex
	modes   map[string]ExecutionMode
	pending map[string]*pendingOps
}

// NewExecutionModeController constructs a controller with every thread
// defaulting to ModeAuto until SetMode is called.
func NewExecutionModeController() *ExecutionModeController {
	return &ExecutionModeController{
		modes:   make(map[string]ExecutionMode),
		pending: make(map[string]*pendingOps),
	}
}

// Mode returns the thread's current mode, defaulting to ModeAuto.
func (c *ExecutionModeController) Mode(threadID string) ExecutionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.modes[threadID]; ok {
		return m
	}
	return ModeAuto
}

// SetMode sets the thread's execution mode.
func (c *ExecutionModeController) SetMode(threadID string, mode ExecutionMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modes[threadID] = mode
}

func (c *ExecutionModeController) slot(threadID string) *pendingOps {
	p, ok := c.pending[threadID]
	if !ok {
		p = &pendingOps{}
		c.pending[threadID] = p
	}
	return p
}

// SetPendingCompaction records a pending compaction for threadID.
func (c *ExecutionModeController) SetPendingCompaction(threadID string, chunks []*Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot(threadID).compaction = chunks
}

// SetPendingTruncation records a pending truncation chunk set.
func (c *ExecutionModeController) SetPendingTruncation(threadID string, chunkIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot(threadID).truncation = chunkIDs
}

// HasPendingCompaction reports whether a pending compaction is recorded.
func (c *ExecutionModeController) HasPendingCompaction(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[threadID]
	return ok && len(p.compaction) > 0
}

// HasPendingTruncation reports whether a pending truncation is recorded.
func (c *ExecutionModeController) HasPendingTruncation(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[threadID]
	return ok && len(p.truncation) > 0
}

// ConsumePendingCompaction returns and clears the pending compaction chunk
// set, or nil if none is recorded. The clear happens even when the caller
// discards the result, so a pending set is never applied twice.
func (c *ExecutionModeController) ConsumePendingCompaction(threadID string) []*Chunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[threadID]
	if !ok || len(p.compaction) == 0 {
		return nil
	}
	chunks := p.compaction
	p.compaction = nil
	return chunks
}

// ConsumePendingTruncation returns and clears the pending truncation chunk
// id set, or nil if none is recorded.
func (c *ExecutionModeController) ConsumePendingTruncation(threadID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[threadID]
	if !ok || len(p.truncation) == 0 {
		return nil
	}
	ids := p.truncation
	p.truncation = nil
	return ids
}

// Forget removes all mode and pending-op state for a deleted thread.
func (c *ExecutionModeController) Forget(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.modes, threadID)
	delete(c.pending, threadID)
}
