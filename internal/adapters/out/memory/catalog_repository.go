package memory

import (
	"context"
	"fmt"
	"sort"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

var (
	_ ports.OrderTypeRepository   = (*OrderTypeRepository)(nil)
	_ ports.CareSettingRepository = (*CareSettingRepository)(nil)
)

type OrderTypeRepository struct {
	store *Store
}

func (r *OrderTypeRepository) Add(_ context.Context, orderType *order.OrderType) error {
	if orderType == nil {
		return errs.NewValueIsRequiredError("orderType")
	}
	c, err := copyOrderType(orderType)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.types[c.UUID()]; ok {
		return errs.NewValueIsInvalidErrorWithCause("orderType", fmt.Errorf("order type %s already exists", c.UUID()))
	}
	r.store.types[c.UUID()] = c
	return nil
}

func (r *OrderTypeRepository) Get(_ context.Context, id kernel.UUID) (*order.OrderType, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.types[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderType", id)
	}
	return copyOrderType(t)
}

func (r *OrderTypeRepository) GetSubtypes(
	_ context.Context,
	parent kernel.UUID,
	includeRetired bool,
) ([]*order.OrderType, error) {
	return r.find(func(t *order.OrderType) bool {
		return t.Parent() != nil && t.Parent().IsEqual(parent) && (includeRetired || !t.IsRetired())
	})
}

func (r *OrderTypeRepository) GetByConceptClass(_ context.Context, conceptClass kernel.UUID) (*order.OrderType, error) {
	found, err := r.find(func(t *order.OrderType) bool {
		if t.IsRetired() {
			return false
		}
		for _, c := range t.ConceptClasses() {
			if c.IsEqual(conceptClass) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.NewObjectNotFoundError("conceptClass", conceptClass)
	}
	return found[0], nil
}

// GetByVariant returns the first unretired type, by name, declaring exactly variant.
func (r *OrderTypeRepository) GetByVariant(_ context.Context, variant order.Variant) (*order.OrderType, error) {
	found, err := r.find(func(t *order.OrderType) bool {
		return !t.IsRetired() && t.Variant() == variant
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.NewObjectNotFoundError("variant", variant.String())
	}
	return found[0], nil
}

func (r *OrderTypeRepository) find(keep func(*order.OrderType) bool) ([]*order.OrderType, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*order.OrderType
	for _, t := range r.store.types {
		if !keep(t) {
			continue
		}
		c, err := copyOrderType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

type CareSettingRepository struct {
	store *Store
}

func (r *CareSettingRepository) Add(_ context.Context, careSetting *order.CareSetting) error {
	if careSetting == nil {
		return errs.NewValueIsRequiredError("careSetting")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.careSettings[careSetting.UUID()]; ok {
		return errs.NewValueIsInvalidErrorWithCause("careSetting", fmt.Errorf("care setting %s already exists", careSetting.UUID()))
	}
	r.store.careSettings[careSetting.UUID()] = careSetting
	return nil
}

func (r *CareSettingRepository) Get(_ context.Context, id kernel.UUID) (*order.CareSetting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cs, ok := r.store.careSettings[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("careSetting", id)
	}
	return cs, nil
}
