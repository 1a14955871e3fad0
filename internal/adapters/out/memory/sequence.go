package memory

import (
	"context"
	"sync/atomic"

	"clinicalorders/internal/core/ports"
)

var _ ports.OrderNumberSequence = (*Sequence)(nil)

// Sequence is a process-local order number seed. Values are handed out once even
// when the save that drew them rolls back.
type Sequence struct {
	last atomic.Int64
}

// NewSequence starts the sequence so that the first value returned is start.
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start - 1)
	return s
}

func (s *Sequence) Next(_ context.Context) (int64, error) {
	return s.last.Add(1), nil
}
