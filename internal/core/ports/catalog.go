package ports

import (
	"context"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
)

// OrderTypeRepository reads and maintains the order type tree.
type OrderTypeRepository interface {
	Add(ctx context.Context, orderType *order.OrderType) error
	Get(ctx context.Context, id kernel.UUID) (*order.OrderType, error)

	// GetSubtypes returns the immediate children of parent.
	GetSubtypes(ctx context.Context, parent kernel.UUID, includeRetired bool) ([]*order.OrderType, error)

	// GetByConceptClass returns the unretired type mapped to the concept class.
	GetByConceptClass(ctx context.Context, conceptClass kernel.UUID) (*order.OrderType, error)

	// GetByVariant returns the default unretired type declaring exactly this variant.
	GetByVariant(ctx context.Context, variant order.Variant) (*order.OrderType, error)
}

type CareSettingRepository interface {
	Add(ctx context.Context, careSetting *order.CareSetting) error
	Get(ctx context.Context, id kernel.UUID) (*order.CareSetting, error)
}

// ConceptDirectory answers the few dictionary questions the lifecycle engine has.
type ConceptDirectory interface {
	ConceptOfDrug(ctx context.Context, drug kernel.UUID) (kernel.UUID, error)
	ConceptClassOf(ctx context.Context, concept kernel.UUID) (kernel.UUID, error)
}
