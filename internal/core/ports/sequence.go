package ports

import "context"

// OrderNumberSequence hands out order number seeds. Each value is committed on its
// own, outside the caller's unit of work, so it is never issued twice even when
// the save that requested it rolls back.
type OrderNumberSequence interface {
	Next(ctx context.Context) (int64, error)
}
