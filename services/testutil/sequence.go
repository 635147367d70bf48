package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
)

// SeqStub is an in-memory sequence.Generator for tests. Fixed, when set,
// overrides the generated code so tests can force unique-constraint collisions.
type SeqStub struct {
	Fixed string
	n     int64
}

func (s *SeqStub) NextOrderCode(ctx context.Context) (string, error) {
	return s.next("ORD"), nil
}

func (s *SeqStub) NextEnrollmentCode(ctx context.Context) (string, error) {
	return s.next("ENR"), nil
}

func (s *SeqStub) next(prefix string) string {
	if s.Fixed != "" {
		return s.Fixed
	}
	return fmt.Sprintf("%s-TEST-%03d", prefix, atomic.AddInt64(&s.n, 1))
}
