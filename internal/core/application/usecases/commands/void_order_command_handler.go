package commands

import (
	"context"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/domain/services"
	"clinicalorders/internal/core/ports"
)

// VoidOrderCommandHandler voids an order. Voiding a revision or discontinuation also
// lifts the stop it put on its previous order, so the previous order becomes active
// again. The void is refused with AmbiguousOrder while a later order for the same
// orderable is active, such as a revision of the voided revision; void that one first.
type VoidOrderCommandHandler struct {
	deps     Deps
	detector services.ConflictDetector
}

func NewVoidOrderCommandHandler(deps Deps) (*VoidOrderCommandHandler, error) {
	d, err := deps.withDefaults("void_order")
	if err != nil {
		return nil, err
	}
	return &VoidOrderCommandHandler{deps: d, detector: services.NewConflictDetector(nil)}, nil
}

func (h *VoidOrderCommandHandler) Handle(ctx context.Context, cmd VoidOrderCommand) (*order.Order, error) {
	voided, err := h.handle(ctx, cmd)
	if err != nil {
		kind := RejectionKind(err)
		h.deps.Metrics.OrderRejected("void", kind)
		h.deps.Logger.Warn().Err(err).Str("kind", kind).Msg("order void rejected")
		return nil, err
	}

	h.deps.Metrics.OrderVoided()
	h.deps.Logger.Info().Str("order", voided.UUID().String()).Str("reason", voided.VoidReason()).Msg("order voided")
	return voided, nil
}

func (h *VoidOrderCommandHandler) handle(ctx context.Context, cmd VoidOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegeDeleteOrders); err != nil {
		return nil, err
	}

	patient, err := h.deps.patientOf(ctx, cmd.OrderUUID())
	if err != nil {
		return nil, err
	}

	var voided *order.Order
	err = h.deps.inPatientTx(ctx, patient, func(uow OrderUoW) error {
		orders := uow.OrderRepository()
		o, err := orders.GetByUUID(ctx, cmd.OrderUUID())
		if err != nil {
			return err
		}
		if err = o.Void(cmd.VoidedBy(), cmd.Reason(), h.deps.now()); err != nil {
			return err
		}

		previous, err := supersededBy(ctx, orders, o)
		if err != nil {
			return err
		}
		if previous != nil && stoppedBy(previous, o) {
			previous.ClearStop()
			if err = overlapCheck(ctx, orders, h.detector, previous, h.deps.now(), []kernel.UUID{o.UUID()}); err != nil {
				return err
			}
			if err = orders.Update(ctx, previous); err != nil {
				return err
			}
		}

		if err = orders.Update(ctx, o); err != nil {
			return err
		}
		voided = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voided, nil
}

// UnvoidOrderCommandHandler restores a voided order. For a revision or
// discontinuation the previous order is stopped again at the backdated instant,
// which is only possible while that order is active and carries no other stop.
// An active previous order is therefore the expected state, not a conflict: the
// void left it running and the unvoid takes it back. CannotUnvoidOrder is returned
// when it has since been stopped, expired or voided.
// A restored order that would overlap an active order for the same orderable is
// refused with CannotUnvoidOrder caused by AmbiguousOrder.
type UnvoidOrderCommandHandler struct {
	deps     Deps
	detector services.ConflictDetector
}

func NewUnvoidOrderCommandHandler(deps Deps) (*UnvoidOrderCommandHandler, error) {
	d, err := deps.withDefaults("unvoid_order")
	if err != nil {
		return nil, err
	}
	return &UnvoidOrderCommandHandler{deps: d, detector: services.NewConflictDetector(nil)}, nil
}

func (h *UnvoidOrderCommandHandler) Handle(ctx context.Context, cmd UnvoidOrderCommand) (*order.Order, error) {
	restored, err := h.handle(ctx, cmd)
	if err != nil {
		kind := RejectionKind(err)
		h.deps.Metrics.OrderRejected("unvoid", kind)
		h.deps.Logger.Warn().Err(err).Str("kind", kind).Msg("order unvoid rejected")
		return nil, err
	}

	h.deps.Metrics.OrderUnvoided()
	h.deps.Logger.Info().Str("order", restored.UUID().String()).Msg("order unvoided")
	return restored, nil
}

func (h *UnvoidOrderCommandHandler) handle(ctx context.Context, cmd UnvoidOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegeDeleteOrders); err != nil {
		return nil, err
	}

	patient, err := h.deps.patientOf(ctx, cmd.OrderUUID())
	if err != nil {
		return nil, err
	}

	var restored *order.Order
	err = h.deps.inPatientTx(ctx, patient, func(uow OrderUoW) error {
		orders := uow.OrderRepository()
		o, err := orders.GetByUUID(ctx, cmd.OrderUUID())
		if err != nil {
			return err
		}
		if err = o.Unvoid(); err != nil {
			return err
		}

		previous, err := supersededBy(ctx, orders, o)
		if err != nil {
			return err
		}
		if previous != nil {
			if err = h.restop(o, previous); err != nil {
				return err
			}
		}
		if err = h.checkOverlap(ctx, orders, o, previous); err != nil {
			return err
		}
		if previous != nil {
			if err = orders.Update(ctx, previous); err != nil {
				return err
			}
		}

		if err = orders.Update(ctx, o); err != nil {
			return err
		}
		restored = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func (h *UnvoidOrderCommandHandler) restop(o, previous *order.Order) error {
	now := h.deps.now()
	if o.DateActivated() == nil || previous.DateStopped() != nil || !previous.IsActive(now) {
		return order.NewCannotUnvoidOrderError(o.UUID().String(), previous.UUID().String())
	}
	if err := previous.Stop(backdatedStop(o), now, false); err != nil {
		return order.NewCannotUnvoidOrderErrorWithCause(o.UUID().String(), previous.UUID().String(), err)
	}
	return nil
}

func (h *UnvoidOrderCommandHandler) checkOverlap(
	ctx context.Context,
	orders ports.OrderRepository,
	o, previous *order.Order,
) error {
	if o.Action() == order.ActionDiscontinue {
		return nil
	}
	asOf := h.deps.now()
	if o.DateActivated() != nil && o.DateActivated().After(asOf) {
		asOf = *o.DateActivated()
	}

	err := overlapCheck(ctx, orders, h.detector, o, asOf, nil)
	if err == nil {
		return nil
	}
	var previousUUID string
	if previous != nil {
		previousUUID = previous.UUID().String()
	}
	return order.NewCannotUnvoidOrderErrorWithCause(o.UUID().String(), previousUUID, err)
}

// supersededBy loads the order o revised or discontinued, or nil for NEW orders.
func supersededBy(ctx context.Context, orders ports.OrderRepository, o *order.Order) (*order.Order, error) {
	if !o.Action().IsEdit() || o.PreviousOrder() == nil {
		return nil, nil
	}
	return orders.GetByUUID(ctx, *o.PreviousOrder())
}

// stoppedBy reports whether previous carries the stop o put on it when o was saved.
func stoppedBy(previous, o *order.Order) bool {
	stopped := previous.DateStopped()
	return stopped != nil && o.DateActivated() != nil && stopped.Equal(backdatedStop(o))
}

func backdatedStop(o *order.Order) time.Time {
	return kernel.MomentBefore(*o.DateActivated())
}
