package engine

import "sync"

// SequenceGuard stamps bookmark requests and rejects responses to
// superseded ones.
type SequenceGuard struct {
	mu        sync.Mutex
	issued    uint64
	watermark uint64
}

// Next issues a strictly increasing stamp.
func (g *SequenceGuard) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// Accept advances the watermark to seq and returns true only when seq is
// newer than every stamp accepted so far. A false result means the response
// must be dropped without touching shared state.
func (g *SequenceGuard) Accept(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq <= g.watermark {
		return false
	}
	g.watermark = seq
	return true
}

// Watermark returns the highest accepted stamp.
func (g *SequenceGuard) Watermark() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.watermark
}
