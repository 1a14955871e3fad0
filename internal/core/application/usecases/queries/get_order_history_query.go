package queries

import (
	"errors"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/guard"
)

var ErrGetOrderHistoryQueryIsNotConstructed = errors.New(
	"GetOrderHistoryQuery must be created via NewGetOrderHistoryQuery constructor",
)

// GetOrderHistoryQuery walks the revision chain of an order through its previous
// order references, newest first.
type GetOrderHistoryQuery struct { //nolint:recvcheck //using for validation
	orderUUID kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetOrderHistoryQuery(orderUUID kernel.UUID) (GetOrderHistoryQuery, error) {
	if err := orderUUID.Validate(); err != nil {
		return GetOrderHistoryQuery{}, err
	}
	return GetOrderHistoryQuery{orderUUID: orderUUID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderHistoryQueryIsNotConstructed)
}

func (q GetOrderHistoryQuery) OrderUUID() kernel.UUID {
	return q.orderUUID
}

// GetOrderHistoryQueryResponse is one link of the chain.
type GetOrderHistoryQueryResponse struct {
	UUID          kernel.UUID
	OrderNumber   string
	Action        string
	DateActivated time.Time
	DateStopped   *time.Time
	Voided        bool
}
