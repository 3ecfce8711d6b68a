package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator generates the same request ID every time.
//
// This enables deterministic log output and golden snapshot comparison.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed request ID generator.
//
// If id is empty, Generate() returns "test-request".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-request"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements request.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequentialIDGenerator generates numbered request IDs: "<prefix>-1",
// "<prefix>-2", ...
//
// Unlike request.FixedGenerator it never runs out, and it can be reset so
// the same scenario produces identical IDs on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDGenerator creates a generator whose first ID is
// "<prefix>-1". An empty prefix defaults to "req".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Count returns how many IDs have been generated since the last Reset.
func (g *SequentialIDGenerator) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next ID is "<prefix>-1" again.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
