package queries

import (
	"context"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/domain/services"
	"clinicalorders/internal/core/ports"
)

// GetActiveOrdersQueryHandler answers GetActiveOrdersQuery from the order repository,
// expanding the requested order type through the type hierarchy. Retired subtypes
// are included: orders placed before a type was retired are still in effect.
type GetActiveOrdersQueryHandler struct {
	orders     ports.OrderRepository
	hierarchy  services.OrderTypeHierarchy
	authorizer ports.Authorizer
	clock      kernel.Clock
}

func NewGetActiveOrdersQueryHandler(
	orders ports.OrderRepository,
	orderTypes ports.OrderTypeRepository,
	authorizer ports.Authorizer,
	clock kernel.Clock,
) GetActiveOrdersQueryHandler {
	if clock == nil {
		clock = kernel.SystemClock
	}
	return GetActiveOrdersQueryHandler{
		orders:     orders,
		hierarchy:  services.NewOrderTypeHierarchy(orderTypes),
		authorizer: authorizer,
		clock:      clock,
	}
}

// Handle returns the matching orders, oldest activation first.
func (h GetActiveOrdersQueryHandler) Handle(ctx context.Context, query GetActiveOrdersQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := h.authorizer.Authorize(ctx, ports.PrivilegeGetOrders); err != nil {
		return nil, err
	}

	filter := ports.ActiveOrdersFilter{
		Patient:     query.Patient(),
		CareSetting: query.CareSetting(),
		AsOf:        h.clock(),
	}
	if query.AsOf() != nil {
		filter.AsOf = *query.AsOf()
	}
	if query.OrderType() != nil {
		types, err := h.hierarchy.WithSubtypes(ctx, *query.OrderType(), true)
		if err != nil {
			return nil, err
		}
		filter.OrderTypes = types
	}

	return h.orders.GetActiveOrders(ctx, filter)
}
