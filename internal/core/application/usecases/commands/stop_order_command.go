package commands

import (
	"errors"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/guard"
)

var ErrStopOrderCommandIsNotConstructed = errors.New(
	"StopOrderCommand must be created via NewStopOrderCommand constructor",
)

// StopOrderCommand ends an active order. A nil stop instant means now.
type StopOrderCommand struct { //nolint:recvcheck //using for validation
	orderUUID     kernel.UUID
	at            *time.Time
	retrospective bool

	guard guard.ConstructorGuard
}

func NewStopOrderCommand(orderUUID kernel.UUID, at *time.Time, retrospective bool) (StopOrderCommand, error) {
	if err := orderUUID.Validate(); err != nil {
		return StopOrderCommand{}, err
	}

	return StopOrderCommand{
		orderUUID:     orderUUID,
		at:            kernel.InstantPtr(at),
		retrospective: retrospective,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c StopOrderCommand) Validate() error {
	return c.guard.Validate(ErrStopOrderCommandIsNotConstructed)
}

func (c StopOrderCommand) OrderUUID() kernel.UUID {
	return c.orderUUID
}

func (c StopOrderCommand) At() *time.Time {
	return kernel.InstantPtr(c.at)
}

func (c StopOrderCommand) Retrospective() bool {
	return c.retrospective
}
