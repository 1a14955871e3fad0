package services

import (
	"context"
	"errors"
	"fmt"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
)

// ErrOrderTypeCycle is returned when an order type is reached twice while walking the
// subtype tree, which means the parent references form a cycle.
var ErrOrderTypeCycle = errors.New("order type hierarchy contains a cycle")

// SubtypeSource lists the immediate subtypes of an order type.
type SubtypeSource interface {
	GetSubtypes(ctx context.Context, parent kernel.UUID, includeRetired bool) ([]*order.OrderType, error)
}

// OrderTypeHierarchy resolves an order type to the set of types a query by that type
// should match: the type itself and all of its descendants.
type OrderTypeHierarchy struct {
	source SubtypeSource
}

func NewOrderTypeHierarchy(source SubtypeSource) OrderTypeHierarchy {
	return OrderTypeHierarchy{source: source}
}

// Subtypes returns every descendant of root, breadth first, excluding root itself.
// Retired subtypes (and their descendants) are skipped unless includeRetired is set.
func (h OrderTypeHierarchy) Subtypes(ctx context.Context, root kernel.UUID, includeRetired bool) ([]*order.OrderType, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}

	visited := map[kernel.UUID]struct{}{root: {}}
	queue := []kernel.UUID{root}
	var result []*order.OrderType

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children, err := h.source.GetSubtypes(ctx, parent, includeRetired)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child.UUID()]; seen {
				return nil, fmt.Errorf("%w: %s reached twice below %s", ErrOrderTypeCycle, child.UUID(), root)
			}
			visited[child.UUID()] = struct{}{}
			result = append(result, child)
			queue = append(queue, child.UUID())
		}
	}

	return result, nil
}

// WithSubtypes returns the uuids of root and all its descendants, root first.
func (h OrderTypeHierarchy) WithSubtypes(ctx context.Context, root kernel.UUID, includeRetired bool) ([]kernel.UUID, error) {
	subtypes, err := h.Subtypes(ctx, root, includeRetired)
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(subtypes)+1)
	ids = append(ids, root)
	for _, st := range subtypes {
		ids = append(ids, st.UUID())
	}
	return ids, nil
}
