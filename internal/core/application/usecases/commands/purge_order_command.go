package commands

import (
	"errors"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/guard"
)

var ErrPurgeOrderCommandIsNotConstructed = errors.New(
	"PurgeOrderCommand must be created via NewPurgeOrderCommand constructor",
)

// PurgeOrderCommand deletes an order permanently. Prefer voiding; purging is for
// data that must not be kept at all.
type PurgeOrderCommand struct { //nolint:recvcheck //using for validation
	orderUUID kernel.UUID

	guard guard.ConstructorGuard
}

func NewPurgeOrderCommand(orderUUID kernel.UUID) (PurgeOrderCommand, error) {
	if err := orderUUID.Validate(); err != nil {
		return PurgeOrderCommand{}, err
	}
	return PurgeOrderCommand{orderUUID: orderUUID, guard: guard.NewConstructorGuard()}, nil
}

func (c PurgeOrderCommand) Validate() error {
	return c.guard.Validate(ErrPurgeOrderCommandIsNotConstructed)
}

func (c PurgeOrderCommand) OrderUUID() kernel.UUID {
	return c.orderUUID
}
