package node

import "sync/atomic"

// IDGenerator hands out request ids. Ids only correlate responses with
// requests on a shared connection; they carry no security meaning.
type IDGenerator interface {
	NextID() uint64
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() uint64

// NextID calls f.
func (f IDGeneratorFunc) NextID() uint64 {
	return f()
}

// SequentialIDs returns 1, 2, 3, ... and is safe for concurrent use.
type SequentialIDs struct {
	last atomic.Uint64
}

// NextID returns the next id in sequence.
func (s *SequentialIDs) NextID() uint64 {
	return s.last.Add(1)
}
