package queries

import (
	"context"

	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
)

type GetOrderByNumberQueryHandler struct {
	orders     ports.OrderRepository
	authorizer ports.Authorizer
}

func NewGetOrderByNumberQueryHandler(orders ports.OrderRepository, authorizer ports.Authorizer) GetOrderByNumberQueryHandler {
	return GetOrderByNumberQueryHandler{orders: orders, authorizer: authorizer}
}

// Handle returns the order, voided or not. A missing number is errs.ErrObjectNotFound.
func (h GetOrderByNumberQueryHandler) Handle(ctx context.Context, query GetOrderByNumberQuery) (*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := h.authorizer.Authorize(ctx, ports.PrivilegeGetOrders); err != nil {
		return nil, err
	}
	return h.orders.GetByOrderNumber(ctx, query.Number())
}
