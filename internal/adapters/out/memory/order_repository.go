package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if aggregate == nil {
		return errs.NewValueIsRequiredError("order")
	}
	if _, ok := r.uow.lookup(aggregate.UUID()); ok {
		return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("order %s already exists", aggregate.UUID()))
	}
	if number := aggregate.OrderNumber(); number != "" {
		for _, s := range r.uow.visible() {
			if s.OrderNumber == number {
				return errs.NewValueIsInvalidErrorWithCause("orderNumber", fmt.Errorf("order number %s is taken", number))
			}
		}
	}

	if err := aggregate.AssignID(r.uow.store.nextID()); err != nil {
		return err
	}
	s := aggregate.Snapshot()
	r.uow.write(aggregate.UUID(), &s)
	return nil
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if aggregate == nil {
		return errs.NewValueIsRequiredError("order")
	}
	if _, ok := r.uow.lookup(aggregate.UUID()); !ok {
		return errs.NewObjectNotFoundError("orderUuid", aggregate.UUID())
	}
	s := aggregate.Snapshot()
	r.uow.write(aggregate.UUID(), &s)
	return nil
}

func (r *OrderRepository) Delete(_ context.Context, id kernel.UUID) error {
	if _, ok := r.uow.lookup(id); !ok {
		return errs.NewObjectNotFoundError("orderUuid", id)
	}
	r.uow.write(id, nil)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id int64) (*order.Order, error) {
	for _, s := range r.uow.visible() {
		if s.ID == id {
			return order.RestoreOrder(s)
		}
	}
	return nil, errs.NewObjectNotFoundError("orderId", id)
}

func (r *OrderRepository) GetByUUID(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s, ok := r.uow.lookup(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderUuid", id)
	}
	return order.RestoreOrder(s)
}

func (r *OrderRepository) GetByOrderNumber(_ context.Context, number string) (*order.Order, error) {
	for _, s := range r.uow.visible() {
		if s.OrderNumber == number {
			return order.RestoreOrder(s)
		}
	}
	return nil, errs.NewObjectNotFoundError("orderNumber", number)
}

func (r *OrderRepository) GetActiveOrders(_ context.Context, filter ports.ActiveOrdersFilter) ([]*order.Order, error) {
	types := make(map[kernel.UUID]struct{}, len(filter.OrderTypes))
	for _, t := range filter.OrderTypes {
		types[t] = struct{}{}
	}

	return r.active(filter.AsOf, func(o *order.Order) bool {
		if !o.Patient().IsEqual(filter.Patient) {
			return false
		}
		if filter.CareSetting != nil && !kernel.EqualPtr(o.CareSetting(), filter.CareSetting) {
			return false
		}
		if len(types) > 0 {
			if o.OrderType() == nil {
				return false
			}
			if _, ok := types[*o.OrderType()]; !ok {
				return false
			}
		}
		return true
	})
}

func (r *OrderRepository) GetAllActive(_ context.Context, asOf time.Time) ([]*order.Order, error) {
	return r.active(asOf, func(*order.Order) bool { return true })
}

func (r *OrderRepository) ExistsWithPreviousOrder(_ context.Context, id kernel.UUID) (bool, error) {
	for _, s := range r.uow.visible() {
		if s.PreviousOrder != nil && s.PreviousOrder.IsEqual(id) {
			return true, nil
		}
	}
	return false, nil
}

func (r *OrderRepository) active(asOf time.Time, keep func(*order.Order) bool) ([]*order.Order, error) {
	var out []*order.Order
	for _, s := range r.uow.visible() {
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		if o.IsActive(asOf) && keep(o) {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].DateActivated(), out[j].DateActivated()
		if !ai.Equal(*aj) {
			return ai.Before(*aj)
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}
