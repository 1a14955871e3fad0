package order

import (
	"errors"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

// Snapshot is the full state of an Order as persistence adapters see it.
type Snapshot struct {
	ID          int64
	UUID        kernel.UUID
	OrderNumber string

	Action        Action
	Variant       Variant
	PreviousOrder *kernel.UUID

	Concept     *kernel.UUID
	Drug        *kernel.UUID
	OrderType   *kernel.UUID
	CareSetting *kernel.UUID

	Patient   kernel.UUID
	Orderer   *kernel.UUID
	Encounter *kernel.UUID

	DateActivated  *time.Time
	AutoExpireDate *time.Time
	DateStopped    *time.Time

	Dosing              *Dosing
	OrderReason         *kernel.UUID
	OrderReasonNonCoded string
	Instructions        string

	FulfillerStatus  FulfillerStatus
	FulfillerComment string

	Voided     bool
	VoidedBy   *kernel.UUID
	DateVoided *time.Time
	VoidReason string

	Creator     *kernel.UUID
	DateCreated *time.Time
}

// Snapshot copies the order's state. Mutating the result does not affect the order.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                  o.id,
		UUID:                o.uuid,
		OrderNumber:         o.orderNumber,
		Action:              o.action,
		Variant:             o.variant,
		PreviousOrder:       cloneUUID(o.previousOrder),
		Concept:             cloneUUID(o.concept),
		Drug:                cloneUUID(o.drug),
		OrderType:           cloneUUID(o.orderType),
		CareSetting:         cloneUUID(o.careSetting),
		Patient:             o.patient,
		Orderer:             cloneUUID(o.orderer),
		Encounter:           cloneUUID(o.encounter),
		DateActivated:       cloneTime(o.dateActivated),
		AutoExpireDate:      cloneTime(o.autoExpireDate),
		DateStopped:         cloneTime(o.dateStopped),
		Dosing:              o.Dosing(),
		OrderReason:         cloneUUID(o.orderReason),
		OrderReasonNonCoded: o.orderReasonNonCoded,
		Instructions:        o.instructions,
		FulfillerStatus:     o.fulfillerStatus,
		FulfillerComment:    o.fulfillerComment,
		Voided:              o.voided,
		VoidedBy:            cloneUUID(o.voidedBy),
		DateVoided:          cloneTime(o.dateVoided),
		VoidReason:          o.voidReason,
		Creator:             cloneUUID(o.creator),
		DateCreated:         cloneTime(o.dateCreated),
	}
}

// RestoreOrder rebuilds an order from a snapshot, typically one read from the store.
// Persisted orders always carry a resolved concept.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{guard: guard.NewConstructorGuard()}

	var conceptErr error
	if s.ID != 0 && s.Concept == nil {
		conceptErr = errs.NewValueIsRequiredError("concept")
	}

	if err := errors.Join(
		o.setUUID(s.UUID),
		o.setPatient(s.Patient),
		o.setAction(s.Action),
		o.setVariant(s.Variant),
		s.FulfillerStatus.Validate(),
		conceptErr,
	); err != nil {
		return nil, err
	}
	if s.ID < 0 {
		return nil, errs.NewValueIsOutOfRangeError("id", s.ID, 0, "unbounded")
	}

	o.id = s.ID
	o.orderNumber = s.OrderNumber
	o.previousOrder = cloneUUID(s.PreviousOrder)
	o.concept = cloneUUID(s.Concept)
	o.drug = cloneUUID(s.Drug)
	o.orderType = cloneUUID(s.OrderType)
	o.careSetting = cloneUUID(s.CareSetting)
	o.orderer = cloneUUID(s.Orderer)
	o.encounter = cloneUUID(s.Encounter)
	o.dateActivated = kernel.InstantPtr(s.DateActivated)
	o.autoExpireDate = kernel.InstantPtr(s.AutoExpireDate)
	o.dateStopped = kernel.InstantPtr(s.DateStopped)
	if s.Dosing != nil {
		d := *s.Dosing
		o.dosing = &d
	}
	o.orderReason = cloneUUID(s.OrderReason)
	o.orderReasonNonCoded = s.OrderReasonNonCoded
	o.instructions = s.Instructions
	o.fulfillerStatus = s.FulfillerStatus
	o.fulfillerComment = s.FulfillerComment
	o.voided = s.Voided
	o.voidedBy = cloneUUID(s.VoidedBy)
	o.dateVoided = kernel.InstantPtr(s.DateVoided)
	o.voidReason = s.VoidReason
	o.creator = cloneUUID(s.Creator)
	o.dateCreated = kernel.InstantPtr(s.DateCreated)

	return o, nil
}
