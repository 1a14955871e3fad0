package commands

import (
	"errors"
	"strings"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var (
	ErrVoidOrderCommandIsNotConstructed = errors.New(
		"VoidOrderCommand must be created via NewVoidOrderCommand constructor",
	)
	ErrUnvoidOrderCommandIsNotConstructed = errors.New(
		"UnvoidOrderCommand must be created via NewUnvoidOrderCommand constructor",
	)
)

// VoidOrderCommand soft-deletes an order entered in error.
type VoidOrderCommand struct { //nolint:recvcheck //using for validation
	orderUUID kernel.UUID
	reason    string
	voidedBy  *kernel.UUID

	guard guard.ConstructorGuard
}

func NewVoidOrderCommand(orderUUID kernel.UUID, reason string, voidedBy *kernel.UUID) (VoidOrderCommand, error) {
	if err := orderUUID.Validate(); err != nil {
		return VoidOrderCommand{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return VoidOrderCommand{}, errs.NewValueIsRequiredError("reason")
	}
	if voidedBy != nil {
		if err := voidedBy.Validate(); err != nil {
			return VoidOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("voidedBy", err)
		}
	}

	return VoidOrderCommand{
		orderUUID: orderUUID,
		reason:    reason,
		voidedBy:  voidedBy,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c VoidOrderCommand) Validate() error {
	return c.guard.Validate(ErrVoidOrderCommandIsNotConstructed)
}

func (c VoidOrderCommand) OrderUUID() kernel.UUID {
	return c.orderUUID
}

func (c VoidOrderCommand) Reason() string {
	return c.reason
}

func (c VoidOrderCommand) VoidedBy() *kernel.UUID {
	return c.voidedBy
}

// UnvoidOrderCommand restores a voided order.
type UnvoidOrderCommand struct { //nolint:recvcheck //using for validation
	orderUUID kernel.UUID

	guard guard.ConstructorGuard
}

func NewUnvoidOrderCommand(orderUUID kernel.UUID) (UnvoidOrderCommand, error) {
	if err := orderUUID.Validate(); err != nil {
		return UnvoidOrderCommand{}, err
	}
	return UnvoidOrderCommand{orderUUID: orderUUID, guard: guard.NewConstructorGuard()}, nil
}

func (c UnvoidOrderCommand) Validate() error {
	return c.guard.Validate(ErrUnvoidOrderCommandIsNotConstructed)
}

func (c UnvoidOrderCommand) OrderUUID() kernel.UUID {
	return c.orderUUID
}
