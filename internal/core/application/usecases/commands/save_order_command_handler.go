package commands

import (
	"context"
	"errors"
	"time"

	"clinicalorders/internal/core/application/numbering"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/domain/services"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

// SaveOrderCommandHandlerDeps wires SaveOrderCommandHandler.
type SaveOrderCommandHandlerDeps struct {
	Deps

	Concepts ports.ConceptDirectory
	Numbers  numbering.Generator
	// Detector defaults to the drug-only overlap policy.
	Detector *services.ConflictDetector
}

// SaveOrderCommandHandler is the order lifecycle engine. It turns a candidate order
// into a persisted one: defaults and resolves its references, links and stops the
// order it supersedes, rejects conflicting orders, and numbers it.
//
// Example:
//
//	saved, err := handler.Handle(ctx, cmd)
//	var conflict *order.AmbiguousOrderError
//	switch {
//	case errors.As(err, &conflict):
//	    log.Printf("conflicts with %v", conflict.Conflicting)
//	case err != nil:
//	    return err
//	default:
//	    log.Printf("saved %s", saved.OrderNumber())
//	}
type SaveOrderCommandHandler struct {
	deps     Deps
	concepts ports.ConceptDirectory
	numbers  numbering.Generator
	detector services.ConflictDetector
}

func NewSaveOrderCommandHandler(deps SaveOrderCommandHandlerDeps) (*SaveOrderCommandHandler, error) {
	base, err := deps.Deps.withDefaults("save_order")
	if err != nil {
		return nil, err
	}
	if deps.Concepts == nil {
		return nil, errors.New("save order: concept directory is required")
	}
	if deps.Numbers == nil {
		return nil, errors.New("save order: order number generator is required")
	}

	detector := services.NewConflictDetector(nil)
	if deps.Detector != nil {
		detector = *deps.Detector
	}

	return &SaveOrderCommandHandler{
		deps:     base,
		concepts: deps.Concepts,
		numbers:  deps.Numbers,
		detector: detector,
	}, nil
}

// Handle saves a copy of the command's candidate and returns it. The candidate
// itself is left untouched, so a rejected submission can be corrected and resent.
func (h *SaveOrderCommandHandler) Handle(ctx context.Context, cmd SaveOrderCommand) (*order.Order, error) {
	saved, err := h.handle(ctx, cmd)
	if err != nil {
		kind := RejectionKind(err)
		h.deps.Metrics.OrderRejected("save", kind)
		h.deps.Logger.Warn().Err(err).Str("kind", kind).Msg("order save rejected")
		return nil, err
	}

	h.deps.Metrics.OrderSaved(saved.Action().String())
	h.deps.Logger.Info().
		Str("order", saved.UUID().String()).
		Str("orderNumber", saved.OrderNumber()).
		Str("action", saved.Action().String()).
		Msg("order saved")
	return saved, nil
}

func (h *SaveOrderCommandHandler) handle(ctx context.Context, cmd SaveOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.deps.Authorizer.Authorize(ctx, ports.PrivilegeAddOrders); err != nil {
		return nil, err
	}

	candidate := cmd.Order()
	if candidate.IsPersisted() {
		return nil, order.NewUnchangeableObjectError(candidate.UUID().String())
	}
	o, err := order.RestoreOrder(candidate.Snapshot())
	if err != nil {
		return nil, err
	}

	err = h.deps.inPatientTx(ctx, o.Patient(), func(uow OrderUoW) error {
		return h.save(ctx, uow, o, cmd)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (h *SaveOrderCommandHandler) save(ctx context.Context, uow OrderUoW, o *order.Order, cmd SaveOrderCommand) error {
	now := h.deps.now()
	id := o.UUID().String()
	orders := uow.OrderRepository()

	if o.DateActivated() == nil {
		if err := o.SetDateActivated(now); err != nil {
			return err
		}
	}
	activated := *o.DateActivated()

	if err := h.resolveConcept(ctx, o); err != nil {
		return err
	}
	if o.Concept() == nil {
		return order.NewMissingRequiredPropertyError(id, order.PropertyConcept)
	}

	// Only a caller-supplied date may be date-only; a derived one is exact.
	if err := o.RoundAutoExpireDate(); err != nil {
		return err
	}
	if d := o.Dosing(); d != nil && o.Variant() == order.VariantDrug && o.AutoExpireDate() == nil {
		if err := o.SetAutoExpireDate(d.AutoExpireDate(activated)); err != nil {
			return err
		}
	}

	var previous *order.Order
	if prev := o.PreviousOrder(); prev != nil {
		p, err := orders.GetByUUID(ctx, *prev)
		if err != nil {
			return err
		}
		previous = p
	}

	orderType, err := h.resolveOrderType(ctx, uow, o, cmd.OrderContext())
	if err != nil {
		return err
	}
	if previous != nil && !kernel.EqualPtr(previous.OrderType(), o.OrderType()) {
		return order.NewEditedOrderDoesNotMatchPreviousError(id, previous.UUID().String(), order.FieldOrderType)
	}
	if err = h.resolveCareSetting(ctx, uow, o, previous, cmd.OrderContext()); err != nil {
		return err
	}

	if !orderType.Accepts(o.Variant()) {
		return order.NewOrderTypeMismatchError(id, o.Variant(), orderType)
	}

	switch o.Action() {
	case order.ActionRevise:
		if previous == nil {
			return order.NewMissingRequiredPropertyError(id, order.PropertyPreviousOrder)
		}
	case order.ActionDiscontinue:
		if previous == nil {
			if previous, err = h.findDiscontinued(ctx, uow, o, activated); err != nil {
				return err
			}
			if previous != nil {
				if err = h.linkDiscontinued(o, previous); err != nil {
					return err
				}
			}
		}
	}
	if previous != nil && o.Action().IsEdit() {
		if err = previous.Stop(kernel.MomentBefore(activated), now, cmd.Retrospective()); err != nil {
			return err
		}
	}

	if previous != nil {
		if err = checkChain(o, previous); err != nil {
			return err
		}
	}

	if o.Action() != order.ActionDiscontinue {
		asOf := now
		if cmd.Retrospective() {
			asOf = activated
		}
		if err = h.checkConflicts(ctx, orders, o, asOf, cmd.AllowedParallel()); err != nil {
			return err
		}
	}

	if o.OrderNumber() == "" {
		number, err := h.numbers.Next(ctx)
		if err != nil {
			return err
		}
		if err = o.AssignOrderNumber(number); err != nil {
			return err
		}
	}
	if err = o.MarkCreated(cmd.OrderContext().Creator, now); err != nil {
		return err
	}

	if previous != nil && o.Action().IsEdit() {
		if err = orders.Update(ctx, previous); err != nil {
			return err
		}
	}
	return orders.Add(ctx, o)
}

func (h *SaveOrderCommandHandler) resolveConcept(ctx context.Context, o *order.Order) error {
	if o.Concept() != nil || o.Variant() != order.VariantDrug || o.Drug() == nil {
		return nil
	}
	concept, err := h.concepts.ConceptOfDrug(ctx, *o.Drug())
	if err != nil {
		return err
	}
	return o.SetConcept(concept)
}

// resolveOrderType loads the order's type, choosing one first when the order has none:
// the context override, then the type mapped to the concept's class, then the default
// type of a drug or test variant.
func (h *SaveOrderCommandHandler) resolveOrderType(
	ctx context.Context,
	uow OrderUoW,
	o *order.Order,
	oc OrderContext,
) (*order.OrderType, error) {
	types := uow.OrderTypeRepository()
	if id := o.OrderType(); id != nil {
		return types.Get(ctx, *id)
	}

	ot, err := h.pickOrderType(ctx, types, o, oc)
	if err != nil {
		return nil, err
	}
	if err = o.SetOrderType(ot.UUID()); err != nil {
		return nil, err
	}
	return ot, nil
}

func (h *SaveOrderCommandHandler) pickOrderType(
	ctx context.Context,
	types ports.OrderTypeRepository,
	o *order.Order,
	oc OrderContext,
) (*order.OrderType, error) {
	if oc.OrderType != nil {
		return types.Get(ctx, *oc.OrderType)
	}

	class, err := h.concepts.ConceptClassOf(ctx, *o.Concept())
	switch {
	case err == nil:
		ot, lookupErr := types.GetByConceptClass(ctx, class)
		if lookupErr == nil {
			return ot, nil
		}
		if !errors.Is(lookupErr, errs.ErrObjectNotFound) {
			return nil, lookupErr
		}
	case !errors.Is(err, errs.ErrObjectNotFound):
		return nil, err
	}

	if o.Variant() == order.VariantDrug || o.Variant() == order.VariantTest {
		ot, lookupErr := types.GetByVariant(ctx, o.Variant())
		if lookupErr == nil {
			return ot, nil
		}
		if !errors.Is(lookupErr, errs.ErrObjectNotFound) {
			return nil, lookupErr
		}
	}

	return nil, order.NewMissingRequiredPropertyError(o.UUID().String(), order.PropertyOrderType)
}

// resolveCareSetting takes the care setting from the order, the context or the
// previous order, in that order, and checks that it exists.
func (h *SaveOrderCommandHandler) resolveCareSetting(
	ctx context.Context,
	uow OrderUoW,
	o *order.Order,
	previous *order.Order,
	oc OrderContext,
) error {
	if o.CareSetting() == nil {
		var chosen *kernel.UUID
		switch {
		case oc.CareSetting != nil:
			chosen = oc.CareSetting
		case previous != nil:
			chosen = previous.CareSetting()
		}
		if chosen == nil {
			return order.NewMissingRequiredPropertyError(o.UUID().String(), order.PropertyCareSetting)
		}
		if err := o.SetCareSetting(*chosen); err != nil {
			return err
		}
	}

	if _, err := uow.CareSettingRepository().Get(ctx, *o.CareSetting()); err != nil {
		return err
	}
	if previous != nil && !kernel.EqualPtr(previous.CareSetting(), o.CareSetting()) {
		return order.NewEditedOrderDoesNotMatchPreviousError(
			o.UUID().String(), previous.UUID().String(), order.FieldCareSetting)
	}
	return nil
}

// findDiscontinued looks for the single order a discontinuation without an explicit
// previous order refers to: an order active at the discontinuation's activation, in
// its order type tree and care setting, whose orderable it covers. No match means the
// discontinuation stands alone.
func (h *SaveOrderCommandHandler) findDiscontinued(
	ctx context.Context,
	uow OrderUoW,
	o *order.Order,
	activated time.Time,
) (*order.Order, error) {
	types, err := services.NewOrderTypeHierarchy(uow.OrderTypeRepository()).
		WithSubtypes(ctx, *o.OrderType(), true)
	if err != nil {
		return nil, err
	}

	active, err := uow.OrderRepository().GetActiveOrders(ctx, ports.ActiveOrdersFilter{
		Patient:     o.Patient(),
		OrderTypes:  types,
		CareSetting: o.CareSetting(),
		AsOf:        activated,
	})
	if err != nil {
		return nil, err
	}

	var matches []*order.Order
	for _, a := range active {
		if o.Orderable().Covers(a.Orderable()) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, order.NewAmbiguousOrderError(
			o.UUID().String(),
			"more than one active order matches the discontinued orderable",
			uuidStrings(matches),
		)
	}
}

// linkDiscontinued points the discontinuation at the order it stops. A drug
// discontinuation that named only the concept takes over the drug of that order.
func (h *SaveOrderCommandHandler) linkDiscontinued(o, previous *order.Order) error {
	prev := previous.UUID()
	if err := o.SetPreviousOrder(&prev); err != nil {
		return err
	}
	if o.Variant() == order.VariantDrug && o.Drug() == nil && previous.Drug() != nil {
		return o.SetDrug(*previous.Drug())
	}
	return nil
}

func (h *SaveOrderCommandHandler) checkConflicts(
	ctx context.Context,
	orders ports.OrderRepository,
	o *order.Order,
	asOf time.Time,
	allowedParallel []kernel.UUID,
) error {
	return overlapCheck(ctx, orders, h.detector, o, asOf, allowedParallel)
}

// overlapCheck fails with AmbiguousOrder when o's window overlaps an order of the
// same patient and care setting that is active at asOf.
func overlapCheck(
	ctx context.Context,
	orders ports.OrderRepository,
	detector services.ConflictDetector,
	o *order.Order,
	asOf time.Time,
	allowedParallel []kernel.UUID,
) error {
	active, err := orders.GetActiveOrders(ctx, ports.ActiveOrdersFilter{
		Patient:     o.Patient(),
		CareSetting: o.CareSetting(),
		AsOf:        asOf,
	})
	if err != nil {
		return err
	}

	conflicts := detector.Conflicts(o, active, allowedParallel)
	if len(conflicts) == 0 {
		return nil
	}
	return order.NewAmbiguousOrderError(
		o.UUID().String(),
		"an active order for the same orderable overlaps this order",
		uuidStrings(conflicts),
	)
}

// checkChain enforces that a revision or discontinuation is about exactly the same
// thing as the order it supersedes.
func checkChain(o, previous *order.Order) error {
	var field string
	switch {
	case !o.Orderable().IsSame(previous.Orderable()):
		field = order.FieldOrderable
	case !kernel.EqualPtr(o.OrderType(), previous.OrderType()):
		field = order.FieldOrderType
	case !kernel.EqualPtr(o.CareSetting(), previous.CareSetting()):
		field = order.FieldCareSetting
	case o.Variant() != previous.Variant():
		field = order.FieldVariant
	default:
		return nil
	}
	return order.NewEditedOrderDoesNotMatchPreviousError(o.UUID().String(), previous.UUID().String(), field)
}

func uuidStrings(orders []*order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.UUID().String())
	}
	return out
}
