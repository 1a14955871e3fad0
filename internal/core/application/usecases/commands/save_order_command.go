package commands

import (
	"errors"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var ErrSaveOrderCommandIsNotConstructed = errors.New(
	"SaveOrderCommand must be created via NewSaveOrderCommand constructor",
)

// OrderContext carries caller-supplied defaults for a save.
type OrderContext struct {
	// OrderType is used when the order has no type of its own.
	OrderType *kernel.UUID
	// CareSetting is used when the order has no care setting of its own.
	CareSetting *kernel.UUID
	// Creator is stamped on the saved order.
	Creator *kernel.UUID
}

// SaveOrderCommand submits a candidate order to the lifecycle engine.
//
//	o, _ := order.NewOrder(kernel.NewUUID(), patient, order.ActionRevise, order.VariantDrug)
//	_ = o.SetPreviousOrder(&previous)
//	cmd, err := NewSaveOrderCommand(o, OrderContext{CareSetting: &outpatient}, false, nil)
//	saved, err := handler.Handle(ctx, cmd)
type SaveOrderCommand struct { //nolint:recvcheck //using for validation
	candidate       *order.Order
	orderContext    OrderContext
	retrospective   bool
	allowedParallel []kernel.UUID

	guard guard.ConstructorGuard
}

// NewSaveOrderCommand validates the submission. allowedParallel lists active order
// uuids the candidate may overlap with (orders saved together as a set).
func NewSaveOrderCommand(
	candidate *order.Order,
	orderContext OrderContext,
	retrospective bool,
	allowedParallel []kernel.UUID,
) (SaveOrderCommand, error) {
	cmd := SaveOrderCommand{
		retrospective: retrospective,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCandidate(candidate),
		cmd.setOrderContext(orderContext),
		cmd.setAllowedParallel(allowedParallel),
	); err != nil {
		return SaveOrderCommand{}, err
	}

	return cmd, nil
}

func (c SaveOrderCommand) Validate() error {
	return c.guard.Validate(ErrSaveOrderCommandIsNotConstructed)
}

// Order returns the candidate as submitted. The handler works on a copy.
func (c SaveOrderCommand) Order() *order.Order {
	return c.candidate
}

func (c SaveOrderCommand) OrderContext() OrderContext {
	return c.orderContext
}

// Retrospective marks historical data entry: active-order checks are evaluated at
// the order's own dateActivated instead of now.
func (c SaveOrderCommand) Retrospective() bool {
	return c.retrospective
}

func (c SaveOrderCommand) AllowedParallel() []kernel.UUID {
	out := make([]kernel.UUID, len(c.allowedParallel))
	copy(out, c.allowedParallel)
	return out
}

func (c *SaveOrderCommand) setCandidate(candidate *order.Order) error {
	if candidate == nil {
		return errs.NewValueIsRequiredError("order")
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	c.candidate = candidate
	return nil
}

func (c *SaveOrderCommand) setOrderContext(oc OrderContext) error {
	for name, id := range map[string]*kernel.UUID{
		"orderContext.orderType":   oc.OrderType,
		"orderContext.careSetting": oc.CareSetting,
		"orderContext.creator":     oc.Creator,
	} {
		if id != nil && id.Validate() != nil {
			return errs.NewValueIsInvalidError(name)
		}
	}
	c.orderContext = oc
	return nil
}

func (c *SaveOrderCommand) setAllowedParallel(ids []kernel.UUID) error {
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("allowedParallel", err)
		}
	}
	c.allowedParallel = append([]kernel.UUID(nil), ids...)
	return nil
}
