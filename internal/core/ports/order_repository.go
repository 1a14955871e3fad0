// Package ports defines the contracts between the order lifecycle engine and the
// collaborators it does not own: storage, dictionaries, sequences, locks and
// authorization.
package ports

import (
	"context"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
)

// ActiveOrdersFilter scopes an active-order lookup. An order matches when it belongs
// to Patient, is active at AsOf and, when set, has one of OrderTypes and CareSetting.
type ActiveOrdersFilter struct {
	Patient     kernel.UUID
	OrderTypes  []kernel.UUID
	CareSetting *kernel.UUID
	AsOf        time.Time
}

// OrderRepository is the persistence contract for order aggregates.
// Missing orders are reported with errs.ObjectNotFoundError.
type OrderRepository interface {
	// Add inserts a candidate order and assigns its store id.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the mutable fields of a persisted order: dateStopped, void metadata
	// and fulfiller status.
	Update(ctx context.Context, aggregate *order.Order) error

	// Delete removes an order permanently.
	Delete(ctx context.Context, id kernel.UUID) error

	Get(ctx context.Context, id int64) (*order.Order, error)
	GetByUUID(ctx context.Context, id kernel.UUID) (*order.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*order.Order, error)

	// GetActiveOrders returns orders active at filter.AsOf, oldest activation first.
	GetActiveOrders(ctx context.Context, filter ActiveOrdersFilter) ([]*order.Order, error)

	// GetAllActive returns every active order of every patient at asOf.
	GetAllActive(ctx context.Context, asOf time.Time) ([]*order.Order, error)

	// ExistsWithPreviousOrder reports whether any order names id as its previous order.
	ExistsWithPreviousOrder(ctx context.Context, id kernel.UUID) (bool, error)
}
