package commands

import (
	"context"
	"fmt"

	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

// PurgeOrderCommandHandler hard-deletes an order that no other order refers to.
type PurgeOrderCommandHandler struct {
	deps Deps
}

func NewPurgeOrderCommandHandler(deps Deps) (*PurgeOrderCommandHandler, error) {
	d, err := deps.withDefaults("purge_order")
	if err != nil {
		return nil, err
	}
	return &PurgeOrderCommandHandler{deps: d}, nil
}

func (h *PurgeOrderCommandHandler) Handle(ctx context.Context, cmd PurgeOrderCommand) error {
	if err := h.handle(ctx, cmd); err != nil {
		kind := RejectionKind(err)
		h.deps.Metrics.OrderRejected("purge", kind)
		h.deps.Logger.Warn().Err(err).Str("kind", kind).Msg("order purge rejected")
		return err
	}

	h.deps.Logger.Info().Str("order", cmd.OrderUUID().String()).Msg("order purged")
	return nil
}

func (h *PurgeOrderCommandHandler) handle(ctx context.Context, cmd PurgeOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegePurgeOrders); err != nil {
		return err
	}

	patient, err := h.deps.patientOf(ctx, cmd.OrderUUID())
	if err != nil {
		return err
	}

	return h.deps.inPatientTx(ctx, patient, func(uow OrderUoW) error {
		orders := uow.OrderRepository()
		referenced, err := orders.ExistsWithPreviousOrder(ctx, cmd.OrderUUID())
		if err != nil {
			return err
		}
		if referenced {
			return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf(
				"order %s is the previous order of another order", cmd.OrderUUID()))
		}
		return orders.Delete(ctx, cmd.OrderUUID())
	})
}
