package commands

import (
	"context"

	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
)

// StopOrderCommandHandler stops a persisted order through the order's own stop rules
// and writes the new dateStopped.
type StopOrderCommandHandler struct {
	deps Deps
}

func NewStopOrderCommandHandler(deps Deps) (*StopOrderCommandHandler, error) {
	d, err := deps.withDefaults("stop_order")
	if err != nil {
		return nil, err
	}
	return &StopOrderCommandHandler{deps: d}, nil
}

func (h *StopOrderCommandHandler) Handle(ctx context.Context, cmd StopOrderCommand) (*order.Order, error) {
	stopped, err := h.handle(ctx, cmd)
	if err != nil {
		kind := RejectionKind(err)
		h.deps.Metrics.OrderRejected("stop", kind)
		h.deps.Logger.Warn().Err(err).Str("kind", kind).Msg("order stop rejected")
		return nil, err
	}

	h.deps.Metrics.OrderStopped()
	h.deps.Logger.Info().
		Str("order", stopped.UUID().String()).
		Time("dateStopped", *stopped.DateStopped()).
		Msg("order stopped")
	return stopped, nil
}

func (h *StopOrderCommandHandler) handle(ctx context.Context, cmd StopOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegeEditOrders); err != nil {
		return nil, err
	}

	patient, err := h.deps.patientOf(ctx, cmd.OrderUUID())
	if err != nil {
		return nil, err
	}

	var stopped *order.Order
	err = h.deps.inPatientTx(ctx, patient, func(uow OrderUoW) error {
		orders := uow.OrderRepository()
		o, err := orders.GetByUUID(ctx, cmd.OrderUUID())
		if err != nil {
			return err
		}

		now := h.deps.now()
		at := now
		if cmd.At() != nil {
			at = *cmd.At()
		}
		if err = o.Stop(at, now, cmd.Retrospective()); err != nil {
			return err
		}
		if err = orders.Update(ctx, o); err != nil {
			return err
		}
		stopped = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stopped, nil
}
