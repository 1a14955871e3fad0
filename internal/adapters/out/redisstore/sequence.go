package redisstore

import (
	"context"
	"fmt"

	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const DefaultSequenceKey = "orders:number:seq"

var _ ports.OrderNumberSequence = (*Sequence)(nil)

// Sequence is an INCR counter. Like a database sequence it is never rolled back.
type Sequence struct {
	client redis.UniversalClient
	key    string
}

func NewSequence(client redis.UniversalClient, key string) *Sequence {
	if key == "" {
		key = DefaultSequenceKey
	}
	return &Sequence{client: client, key: key}
}

// Ensure makes the first Next return start unless the counter already exists.
func (s *Sequence) Ensure(ctx context.Context, start int64) error {
	if start < 1 {
		return errs.NewValueIsOutOfRangeError("start", start, 1, "unbounded")
	}
	if err := s.client.SetNX(ctx, s.key, start-1, 0).Err(); err != nil {
		return fmt.Errorf("initialise sequence %s: %w", s.key, err)
	}
	return nil
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	next, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("next value of %s: %w", s.key, err)
	}
	return next, nil
}
