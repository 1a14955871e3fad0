package commands

import (
	"context"

	"clinicalorders/internal/core/ports"
)

// UpdateFulfillerStatusCommandHandler changes the fulfiller status of a persisted
// order. Lifecycle fields are never touched, so no patient lock is taken.
type UpdateFulfillerStatusCommandHandler struct {
	deps Deps
}

func NewUpdateFulfillerStatusCommandHandler(deps Deps) (*UpdateFulfillerStatusCommandHandler, error) {
	d, err := deps.withDefaults("update_fulfiller_status")
	if err != nil {
		return nil, err
	}
	return &UpdateFulfillerStatusCommandHandler{deps: d}, nil
}

func (h *UpdateFulfillerStatusCommandHandler) Handle(ctx context.Context, cmd UpdateFulfillerStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegeEditOrders); err != nil {
		h.deps.Metrics.OrderRejected("fulfiller_status", RejectionKind(err))
		return err
	}

	uow := h.deps.UoWFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	o, err := orders.GetByUUID(ctx, cmd.OrderUUID())
	if err != nil {
		return err
	}
	if err = o.UpdateFulfillerStatus(cmd.Status(), cmd.Comment()); err != nil {
		return err
	}
	if err = orders.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.deps.Logger.Debug().
		Str("order", o.UUID().String()).
		Str("fulfillerStatus", o.FulfillerStatus().String()).
		Msg("fulfiller status updated")
	return nil
}
