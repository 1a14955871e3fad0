// Package catalogrepo stores the reference data orders point at: the order type
// tree, care settings and the slice of the concept dictionary the lifecycle
// engine consults.
package catalogrepo

import (
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"

	"github.com/google/uuid"
)

type OrderTypeDTO struct {
	UUID           uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Name           string                     `gorm:"size:255;not null"`
	Variant        string                     `gorm:"size:16;not null"`
	Parent         *uuid.UUID                 `gorm:"type:uuid;index"`
	Retired        bool                       `gorm:"not null;default:false"`
	ConceptClasses []OrderTypeConceptClassDTO `gorm:"foreignKey:OrderType;references:UUID;constraint:OnDelete:CASCADE"`
}

func (OrderTypeDTO) TableName() string {
	return "order_types"
}

type OrderTypeConceptClassDTO struct {
	OrderType    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConceptClass uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (OrderTypeConceptClassDTO) TableName() string {
	return "order_type_concept_classes"
}

type CareSettingDTO struct {
	UUID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"size:255;not null"`
	Kind    string    `gorm:"size:16;not null"`
	Retired bool      `gorm:"not null;default:false"`
}

func (CareSettingDTO) TableName() string {
	return "care_settings"
}

type ConceptDTO struct {
	UUID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConceptClass uuid.UUID `gorm:"type:uuid;not null"`
}

func (ConceptDTO) TableName() string {
	return "concepts"
}

type DrugDTO struct {
	UUID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Concept uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (DrugDTO) TableName() string {
	return "drugs"
}

// Models lists every table of the package for migrations.
func Models() []any {
	return []any{&OrderTypeDTO{}, &OrderTypeConceptClassDTO{}, &CareSettingDTO{}, &ConceptDTO{}, &DrugDTO{}}
}

func orderTypeFromDomain(t *order.OrderType) OrderTypeDTO {
	dto := OrderTypeDTO{
		UUID:    t.UUID().Bytes(),
		Name:    t.Name(),
		Variant: t.Variant().String(),
		Retired: t.IsRetired(),
	}
	if p := t.Parent(); p != nil {
		raw := p.Bytes()
		dto.Parent = &raw
	}
	for _, c := range t.ConceptClasses() {
		dto.ConceptClasses = append(dto.ConceptClasses, OrderTypeConceptClassDTO{
			OrderType:    dto.UUID,
			ConceptClass: c.Bytes(),
		})
	}
	return dto
}

func orderTypeToDomain(dto OrderTypeDTO) (*order.OrderType, error) {
	id, err := kernel.UUIDFromBytes(dto.UUID[:])
	if err != nil {
		return nil, err
	}
	variant, err := order.ParseVariant(dto.Variant)
	if err != nil {
		return nil, err
	}

	var parent *kernel.UUID
	if dto.Parent != nil {
		p, parseErr := kernel.UUIDFromBytes(dto.Parent[:])
		if parseErr != nil {
			return nil, parseErr
		}
		parent = &p
	}

	classes := make([]kernel.UUID, 0, len(dto.ConceptClasses))
	for _, c := range dto.ConceptClasses {
		class, parseErr := kernel.UUIDFromBytes(c.ConceptClass[:])
		if parseErr != nil {
			return nil, parseErr
		}
		classes = append(classes, class)
	}

	return order.RestoreOrderType(id, dto.Name, variant, parent, dto.Retired, classes)
}

func careSettingFromDomain(c *order.CareSetting) CareSettingDTO {
	return CareSettingDTO{
		UUID:    c.UUID().Bytes(),
		Name:    c.Name(),
		Kind:    c.Kind().String(),
		Retired: c.IsRetired(),
	}
}

func careSettingToDomain(dto CareSettingDTO) (*order.CareSetting, error) {
	id, err := kernel.UUIDFromBytes(dto.UUID[:])
	if err != nil {
		return nil, err
	}
	kind, err := order.ParseCareSettingKind(dto.Kind)
	if err != nil {
		return nil, err
	}
	return order.NewCareSetting(id, dto.Name, kind, dto.Retired)
}
