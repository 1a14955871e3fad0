package commands

import (
	"errors"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/pkg/guard"
)

var ErrUpdateFulfillerStatusCommandIsNotConstructed = errors.New(
	"UpdateFulfillerStatusCommand must be created via NewUpdateFulfillerStatusCommand constructor",
)

// UpdateFulfillerStatusCommand records how far the filler (pharmacy, lab) has got with an order.
type UpdateFulfillerStatusCommand struct { //nolint:recvcheck //using for validation
	orderUUID kernel.UUID
	status    order.FulfillerStatus
	comment   string

	guard guard.ConstructorGuard
}

func NewUpdateFulfillerStatusCommand(
	orderUUID kernel.UUID,
	status order.FulfillerStatus,
	comment string,
) (UpdateFulfillerStatusCommand, error) {
	if err := errors.Join(orderUUID.Validate(), status.Validate()); err != nil {
		return UpdateFulfillerStatusCommand{}, err
	}

	return UpdateFulfillerStatusCommand{
		orderUUID: orderUUID,
		status:    status,
		comment:   comment,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateFulfillerStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateFulfillerStatusCommandIsNotConstructed)
}

func (c UpdateFulfillerStatusCommand) OrderUUID() kernel.UUID {
	return c.orderUUID
}

func (c UpdateFulfillerStatusCommand) Status() order.FulfillerStatus {
	return c.status
}

func (c UpdateFulfillerStatusCommand) Comment() string {
	return c.comment
}
