package queries

import (
	"context"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/domain/services"
	"clinicalorders/internal/core/ports"
)

type FindActiveOrderConflictsQueryHandler struct {
	orders   ports.OrderRepository
	detector services.ConflictDetector
	clock    kernel.Clock
}

func NewFindActiveOrderConflictsQueryHandler(
	orders ports.OrderRepository,
	detector services.ConflictDetector,
	clock kernel.Clock,
) FindActiveOrderConflictsQueryHandler {
	if clock == nil {
		clock = kernel.SystemClock
	}
	return FindActiveOrderConflictsQueryHandler{orders: orders, detector: detector, clock: clock}
}

type conflictScope struct {
	patient     kernel.UUID
	careSetting kernel.UUID
}

// Handle groups active orders by patient and care setting and runs the conflict
// detector over each group. Every pair is reported once, on its earlier order.
func (h FindActiveOrderConflictsQueryHandler) Handle(
	ctx context.Context,
	query FindActiveOrderConflictsQuery,
) ([]ActiveOrderConflict, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	asOf := h.clock()
	if query.AsOf() != nil {
		asOf = *query.AsOf()
	}
	active, err := h.orders.GetAllActive(ctx, asOf)
	if err != nil {
		return nil, err
	}

	var scopes []conflictScope
	groups := make(map[conflictScope][]*order.Order)
	for _, o := range active {
		if o.CareSetting() == nil {
			continue
		}
		scope := conflictScope{patient: o.Patient(), careSetting: *o.CareSetting()}
		if _, ok := groups[scope]; !ok {
			scopes = append(scopes, scope)
		}
		groups[scope] = append(groups[scope], o)
	}

	var result []ActiveOrderConflict
	for _, scope := range scopes {
		group := groups[scope]
		for i, o := range group {
			conflicts := h.detector.Conflicts(o, group[i+1:], nil)
			if len(conflicts) == 0 {
				continue
			}
			ids := make([]kernel.UUID, 0, len(conflicts))
			for _, c := range conflicts {
				ids = append(ids, c.UUID())
			}
			result = append(result, ActiveOrderConflict{
				Patient:       scope.patient,
				CareSetting:   scope.careSetting,
				Order:         o.UUID(),
				OrderNumber:   o.OrderNumber(),
				ConflictsWith: ids,
			})
		}
	}
	return result, nil
}
