// Package orderrepo persists order aggregates with GORM and maps between the domain
// Order and its row in the orders table.
package orderrepo

import (
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/pkg/errs"

	"github.com/google/uuid"
)

// OrderDTO is one row of the orders table. Lifecycle timestamps are stored with
// second precision.
type OrderDTO struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	OrderNumber string    `gorm:"size:64;uniqueIndex;not null"`

	Action        string     `gorm:"size:16;not null"`
	Variant       string     `gorm:"size:16;not null"`
	PreviousOrder *uuid.UUID `gorm:"type:uuid;index"`

	Concept     uuid.UUID  `gorm:"type:uuid;not null"`
	Drug        *uuid.UUID `gorm:"type:uuid"`
	OrderType   uuid.UUID  `gorm:"type:uuid;not null"`
	CareSetting uuid.UUID  `gorm:"type:uuid;not null"`

	Patient   uuid.UUID  `gorm:"type:uuid;not null;index:idx_orders_patient_active"`
	Orderer   *uuid.UUID `gorm:"type:uuid"`
	Encounter *uuid.UUID `gorm:"type:uuid"`

	DateActivated  time.Time  `gorm:"type:timestamptz(0);not null;index:idx_orders_patient_active"`
	AutoExpireDate *time.Time `gorm:"type:timestamptz(0)"`
	DateStopped    *time.Time `gorm:"type:timestamptz(0)"`

	Dosing              DosingDTO  `gorm:"embedded;embeddedPrefix:dosing_"`
	OrderReason         *uuid.UUID `gorm:"type:uuid"`
	OrderReasonNonCoded string
	Instructions        string `gorm:"type:text"`

	FulfillerStatus  string `gorm:"size:16"`
	FulfillerComment string

	Voided     bool       `gorm:"not null;default:false"`
	VoidedBy   *uuid.UUID `gorm:"type:uuid"`
	DateVoided *time.Time `gorm:"type:timestamptz(0)"`
	VoidReason string

	Creator     *uuid.UUID `gorm:"type:uuid"`
	DateCreated *time.Time `gorm:"type:timestamptz(0)"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// DosingDTO holds drug dosing instructions. A nil Dose means the order has none.
type DosingDTO struct {
	Dose            *float64
	Units           string `gorm:"size:32"`
	FrequencyPerDay float64
	Duration        int
	DurationUnit    string `gorm:"size:16"`
}

// fromDomain maps an order to its row. Orders reaching the store have passed the
// lifecycle engine, so concept, type, care setting and activation are required.
func fromDomain(o *order.Order) (OrderDTO, error) {
	s := o.Snapshot()

	switch {
	case s.Concept == nil:
		return OrderDTO{}, errs.NewValueIsRequiredError("concept")
	case s.OrderType == nil:
		return OrderDTO{}, errs.NewValueIsRequiredError("orderType")
	case s.CareSetting == nil:
		return OrderDTO{}, errs.NewValueIsRequiredError("careSetting")
	case s.DateActivated == nil:
		return OrderDTO{}, errs.NewValueIsRequiredError("dateActivated")
	}

	dto := OrderDTO{
		ID:                  s.ID,
		UUID:                s.UUID.Bytes(),
		OrderNumber:         s.OrderNumber,
		Action:              s.Action.String(),
		Variant:             s.Variant.String(),
		PreviousOrder:       rawPtr(s.PreviousOrder),
		Concept:             s.Concept.Bytes(),
		Drug:                rawPtr(s.Drug),
		OrderType:           s.OrderType.Bytes(),
		CareSetting:         s.CareSetting.Bytes(),
		Patient:             s.Patient.Bytes(),
		Orderer:             rawPtr(s.Orderer),
		Encounter:           rawPtr(s.Encounter),
		DateActivated:       *s.DateActivated,
		AutoExpireDate:      s.AutoExpireDate,
		DateStopped:         s.DateStopped,
		OrderReason:         rawPtr(s.OrderReason),
		OrderReasonNonCoded: s.OrderReasonNonCoded,
		Instructions:        s.Instructions,
		FulfillerStatus:     s.FulfillerStatus.String(),
		FulfillerComment:    s.FulfillerComment,
		Voided:              s.Voided,
		VoidedBy:            rawPtr(s.VoidedBy),
		DateVoided:          s.DateVoided,
		VoidReason:          s.VoidReason,
		Creator:             rawPtr(s.Creator),
		DateCreated:         s.DateCreated,
	}

	if d := s.Dosing; d != nil {
		dose := d.Dose()
		dto.Dosing = DosingDTO{
			Dose:            &dose,
			Units:           d.DoseUnits(),
			FrequencyPerDay: d.FrequencyPerDay(),
			Duration:        d.Duration(),
			DurationUnit:    d.DurationUnit().String(),
		}
	}

	return dto, nil
}

// toDomain rebuilds the aggregate from its row. Timestamps come back in UTC.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.UUID[:])
	if err != nil {
		return nil, err
	}
	action, err := order.ParseAction(dto.Action)
	if err != nil {
		return nil, err
	}
	variant, err := order.ParseVariant(dto.Variant)
	if err != nil {
		return nil, err
	}
	fulfiller, err := order.ParseFulfillerStatus(dto.FulfillerStatus)
	if err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:                  dto.ID,
		UUID:                id,
		OrderNumber:         dto.OrderNumber,
		Action:              action,
		Variant:             variant,
		Patient:             mustRestore(dto.Patient, &err),
		Concept:             restorePtr(&dto.Concept, &err),
		OrderType:           restorePtr(&dto.OrderType, &err),
		CareSetting:         restorePtr(&dto.CareSetting, &err),
		PreviousOrder:       restorePtr(dto.PreviousOrder, &err),
		Drug:                restorePtr(dto.Drug, &err),
		Orderer:             restorePtr(dto.Orderer, &err),
		Encounter:           restorePtr(dto.Encounter, &err),
		OrderReason:         restorePtr(dto.OrderReason, &err),
		VoidedBy:            restorePtr(dto.VoidedBy, &err),
		Creator:             restorePtr(dto.Creator, &err),
		DateActivated:       utc(&dto.DateActivated),
		AutoExpireDate:      utc(dto.AutoExpireDate),
		DateStopped:         utc(dto.DateStopped),
		DateVoided:          utc(dto.DateVoided),
		DateCreated:         utc(dto.DateCreated),
		OrderReasonNonCoded: dto.OrderReasonNonCoded,
		Instructions:        dto.Instructions,
		FulfillerStatus:     fulfiller,
		FulfillerComment:    dto.FulfillerComment,
		Voided:              dto.Voided,
		VoidReason:          dto.VoidReason,
	}
	if err != nil {
		return nil, err
	}

	if dto.Dosing.Dose != nil {
		unit, unitErr := order.ParseDurationUnit(dto.Dosing.DurationUnit)
		if unitErr != nil {
			return nil, unitErr
		}
		d, dosingErr := order.NewDosing(
			*dto.Dosing.Dose, dto.Dosing.Units, dto.Dosing.FrequencyPerDay, dto.Dosing.Duration, unit)
		if dosingErr != nil {
			return nil, dosingErr
		}
		s.Dosing = &d
	}

	return order.RestoreOrder(s)
}

func rawPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

// restorePtr converts an optional column; the first conversion error is kept in errp.
func restorePtr(raw *uuid.UUID, errp *error) *kernel.UUID {
	if raw == nil {
		return nil
	}
	id := mustRestore(*raw, errp)
	return &id
}

func mustRestore(raw uuid.UUID, errp *error) kernel.UUID {
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil && *errp == nil {
		*errp = err
	}
	return id
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
