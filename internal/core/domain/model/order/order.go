package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is a directive about a clinical action for a patient. It is the aggregate root
// of the lifecycle engine.
//
// Before it is persisted an order is a candidate and every property may be set. Once
// it has a store id it only changes through Stop/ClearStop, Void/Unvoid and
// UpdateFulfillerStatus; every other mutator fails with UnchangeableObjectError.
// Corrections are made by saving a new REVISE or DISCONTINUE order.
type Order struct {
	id          int64
	uuid        kernel.UUID
	orderNumber string

	action        Action
	variant       Variant
	previousOrder *kernel.UUID

	concept     *kernel.UUID
	drug        *kernel.UUID
	orderType   *kernel.UUID
	careSetting *kernel.UUID

	patient   kernel.UUID
	orderer   *kernel.UUID
	encounter *kernel.UUID

	dateActivated  *time.Time
	autoExpireDate *time.Time
	dateStopped    *time.Time

	dosing              *Dosing
	orderReason         *kernel.UUID
	orderReasonNonCoded string
	instructions        string

	fulfillerStatus  FulfillerStatus
	fulfillerComment string

	voided     bool
	voidedBy   *kernel.UUID
	dateVoided *time.Time
	voidReason string

	creator     *kernel.UUID
	dateCreated *time.Time

	guard guard.ConstructorGuard
}

// NewOrder creates an unsaved candidate order.
//
//	o, err := order.NewOrder(kernel.NewUUID(), patient, order.ActionNew, order.VariantDrug)
//	err = errors.Join(o.SetDrug(ibuprofen), o.SetDateActivated(day1))
func NewOrder(id kernel.UUID, patient kernel.UUID, action Action, variant Variant) (*Order, error) {
	o := &Order{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		o.setUUID(id),
		o.setPatient(patient),
		o.setAction(action),
		o.setVariant(variant),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was built by NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares orders by uuid.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.uuid.IsEqual(other.uuid)
}

// ID is the store-assigned id, 0 while the order is a candidate.
func (o *Order) ID() int64 {
	return o.id
}

func (o *Order) IsPersisted() bool {
	return o.id != 0
}

func (o *Order) UUID() kernel.UUID {
	return o.uuid
}

func (o *Order) OrderNumber() string {
	return o.orderNumber
}

func (o *Order) Action() Action {
	return o.action
}

func (o *Order) Variant() Variant {
	return o.variant
}

func (o *Order) PreviousOrder() *kernel.UUID {
	return cloneUUID(o.previousOrder)
}

func (o *Order) Concept() *kernel.UUID {
	return cloneUUID(o.concept)
}

func (o *Order) Drug() *kernel.UUID {
	return cloneUUID(o.drug)
}

// Orderable combines concept and drug. The concept is the zero UUID while unresolved.
func (o *Order) Orderable() Orderable {
	var concept kernel.UUID
	if o.concept != nil {
		concept = *o.concept
	}
	return NewOrderable(concept, o.drug)
}

func (o *Order) OrderType() *kernel.UUID {
	return cloneUUID(o.orderType)
}

func (o *Order) CareSetting() *kernel.UUID {
	return cloneUUID(o.careSetting)
}

func (o *Order) Patient() kernel.UUID {
	return o.patient
}

func (o *Order) Orderer() *kernel.UUID {
	return cloneUUID(o.orderer)
}

func (o *Order) Encounter() *kernel.UUID {
	return cloneUUID(o.encounter)
}

func (o *Order) DateActivated() *time.Time {
	return cloneTime(o.dateActivated)
}

func (o *Order) AutoExpireDate() *time.Time {
	return cloneTime(o.autoExpireDate)
}

func (o *Order) DateStopped() *time.Time {
	return cloneTime(o.dateStopped)
}

// Dosing is nil for non-drug orders and for drug orders without instructions.
func (o *Order) Dosing() *Dosing {
	if o.dosing == nil {
		return nil
	}
	d := *o.dosing
	return &d
}

func (o *Order) OrderReason() *kernel.UUID {
	return cloneUUID(o.orderReason)
}

func (o *Order) OrderReasonNonCoded() string {
	return o.orderReasonNonCoded
}

func (o *Order) Instructions() string {
	return o.instructions
}

func (o *Order) FulfillerStatus() FulfillerStatus {
	return o.fulfillerStatus
}

func (o *Order) FulfillerComment() string {
	return o.fulfillerComment
}

func (o *Order) IsVoided() bool {
	return o.voided
}

func (o *Order) VoidedBy() *kernel.UUID {
	return cloneUUID(o.voidedBy)
}

func (o *Order) DateVoided() *time.Time {
	return cloneTime(o.dateVoided)
}

func (o *Order) VoidReason() string {
	return o.voidReason
}

func (o *Order) Creator() *kernel.UUID {
	return cloneUUID(o.creator)
}

func (o *Order) DateCreated() *time.Time {
	return cloneTime(o.dateCreated)
}

// EffectiveEnd is the earlier of dateStopped and autoExpireDate; nil means open-ended.
// The order is active strictly before this instant.
func (o *Order) EffectiveEnd() *time.Time {
	switch {
	case o.dateStopped == nil:
		return cloneTime(o.autoExpireDate)
	case o.autoExpireDate == nil:
		return cloneTime(o.dateStopped)
	case o.dateStopped.Before(*o.autoExpireDate):
		return cloneTime(o.dateStopped)
	default:
		return cloneTime(o.autoExpireDate)
	}
}

// IsActive reports whether the order is in effect at t: not voided, not a
// discontinuation, activated at or before t, and neither stopped nor expired by t.
func (o *Order) IsActive(t time.Time) bool {
	if o.voided || o.action == ActionDiscontinue {
		return false
	}
	t = kernel.Instant(t)
	if o.dateActivated == nil || o.dateActivated.After(t) {
		return false
	}
	if o.dateStopped != nil && !o.dateStopped.After(t) {
		return false
	}
	if o.autoExpireDate != nil && !o.autoExpireDate.After(t) {
		return false
	}
	return true
}

// Overlaps reports whether the [dateActivated, EffectiveEnd) windows of both orders
// intersect. A missing activation date counts as the beginning of time.
func (o *Order) Overlaps(other *Order) bool {
	return startsBefore(o.dateActivated, other.EffectiveEnd()) &&
		startsBefore(other.dateActivated, o.EffectiveEnd())
}

// Supersedes reports whether other is this order's previous order.
func (o *Order) Supersedes(other *Order) bool {
	return o.previousOrder != nil && o.previousOrder.IsEqual(other.uuid)
}

// SetConcept sets the concept being ordered.
func (o *Order) SetConcept(concept kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if err := concept.Validate(); err != nil {
		return err
	}
	o.concept = &concept
	return nil
}

// SetDrug sets the drug of a drug order. The concept can then be derived from it.
func (o *Order) SetDrug(drug kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if o.variant != VariantDrug {
		return errs.NewValueIsInvalidErrorWithCause("drug", fmt.Errorf("%s orders do not carry a drug", o.variant))
	}
	if err := drug.Validate(); err != nil {
		return err
	}
	o.drug = &drug
	return nil
}

func (o *Order) SetOrderType(orderType kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if err := orderType.Validate(); err != nil {
		return err
	}
	o.orderType = &orderType
	return nil
}

func (o *Order) SetCareSetting(careSetting kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if err := careSetting.Validate(); err != nil {
		return err
	}
	o.careSetting = &careSetting
	return nil
}

// SetPreviousOrder links the order being revised or discontinued. nil clears it.
func (o *Order) SetPreviousOrder(previous *kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if previous != nil {
		if err := previous.Validate(); err != nil {
			return err
		}
		if previous.IsEqual(o.uuid) {
			return errs.NewValueIsInvalidErrorWithCause("previousOrder", errors.New("order cannot revise itself"))
		}
	}
	o.previousOrder = cloneUUID(previous)
	return nil
}

func (o *Order) SetOrderer(orderer kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if err := orderer.Validate(); err != nil {
		return err
	}
	o.orderer = &orderer
	return nil
}

func (o *Order) SetEncounter(encounter kernel.UUID) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if err := encounter.Validate(); err != nil {
		return err
	}
	o.encounter = &encounter
	return nil
}

// SetDateActivated sets when the order takes effect, truncated to whole seconds.
func (o *Order) SetDateActivated(at time.Time) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if at.IsZero() {
		return errs.NewValueIsRequiredError("dateActivated")
	}
	at = kernel.Instant(at)
	o.dateActivated = &at
	return nil
}

// SetAutoExpireDate sets or clears (nil) the natural end of the order. A bare date is
// kept as given until RoundAutoExpireDate runs at save time.
func (o *Order) SetAutoExpireDate(at *time.Time) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	o.autoExpireDate = kernel.InstantPtr(at)
	return nil
}

// RoundAutoExpireDate rolls a date-only autoExpireDate to 23:59:59 of that date.
func (o *Order) RoundAutoExpireDate() error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if o.autoExpireDate != nil && kernel.IsDateOnly(*o.autoExpireDate) {
		end := kernel.EndOfDay(*o.autoExpireDate)
		o.autoExpireDate = &end
	}
	return nil
}

func (o *Order) SetDosing(d Dosing) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if o.variant != VariantDrug {
		return errs.NewValueIsInvalidErrorWithCause("dosing", fmt.Errorf("%s orders do not carry dosing", o.variant))
	}
	o.dosing = &d
	return nil
}

// SetOrderReason records why the order was placed. Either a coded reason, free text, or both.
func (o *Order) SetOrderReason(reason *kernel.UUID, nonCoded string) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if reason != nil {
		if err := reason.Validate(); err != nil {
			return err
		}
	}
	o.orderReason = cloneUUID(reason)
	o.orderReasonNonCoded = strings.TrimSpace(nonCoded)
	return nil
}

func (o *Order) SetInstructions(instructions string) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	o.instructions = instructions
	return nil
}

// MarkCreated stamps the audit fields just before the order is handed to the store.
func (o *Order) MarkCreated(creator *kernel.UUID, at time.Time) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	at = kernel.Instant(at)
	o.creator = cloneUUID(creator)
	o.dateCreated = &at
	return nil
}

// AssignOrderNumber gives the order its human-readable number. A number is assigned once.
func (o *Order) AssignOrderNumber(number string) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if strings.TrimSpace(number) == "" {
		return errs.NewValueIsRequiredError("orderNumber")
	}
	if o.orderNumber != "" {
		return errs.NewValueIsInvalidErrorWithCause("orderNumber", fmt.Errorf("order already numbered %s", o.orderNumber))
	}
	o.orderNumber = number
	return nil
}

// AssignID is called by the store when the order is first persisted. From then on
// the order is unchangeable.
func (o *Order) AssignID(id int64) error {
	if err := o.ensureChangeable(); err != nil {
		return err
	}
	if id <= 0 {
		return errs.NewValueIsOutOfRangeError("id", id, 1, "unbounded")
	}
	o.id = id
	return nil
}

// Stop ends the order at `at`.
//
// It fails when `at` lies after now, when the order is a discontinuation, or when the
// order is not active at the relevant instant: now for a live stop, `at` for a
// retrospective one (which also requires that the order was never stopped).
func (o *Order) Stop(at time.Time, now time.Time, retrospective bool) error {
	at, now = kernel.Instant(at), kernel.Instant(now)
	if at.After(now) {
		return errs.NewValueIsInvalidErrorWithCause("dateStopped", fmt.Errorf(
			"%s is in the future", at.Format(time.RFC3339)))
	}
	if o.action == ActionDiscontinue {
		return NewCannotStopDiscontinuationOrderError(o.uuid.String())
	}
	if retrospective {
		if o.dateStopped != nil || !o.IsActive(at) {
			return NewCannotStopInactiveOrderError(o.uuid.String(), at)
		}
	} else if !o.IsActive(now) {
		return NewCannotStopInactiveOrderError(o.uuid.String(), now)
	}

	o.dateStopped = &at
	return nil
}

// ClearStop reverts a stop. Used when the order that caused the stop is voided.
func (o *Order) ClearStop() {
	o.dateStopped = nil
}

// Void soft-deletes the order. A reason is mandatory.
func (o *Order) Void(by *kernel.UUID, reason string, at time.Time) error {
	if o.voided {
		return errs.NewValueIsInvalidErrorWithCause("voided", fmt.Errorf("order %s is already voided", o.uuid))
	}
	if strings.TrimSpace(reason) == "" {
		return errs.NewValueIsRequiredError("voidReason")
	}
	at = kernel.Instant(at)
	o.voided = true
	o.voidedBy = cloneUUID(by)
	o.dateVoided = &at
	o.voidReason = strings.TrimSpace(reason)
	return nil
}

func (o *Order) Unvoid() error {
	if !o.voided {
		return errs.NewValueIsInvalidErrorWithCause("voided", fmt.Errorf("order %s is not voided", o.uuid))
	}
	o.voided = false
	o.voidedBy = nil
	o.dateVoided = nil
	o.voidReason = ""
	return nil
}

// UpdateFulfillerStatus records execution progress. It never touches lifecycle fields.
func (o *Order) UpdateFulfillerStatus(status FulfillerStatus, comment string) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.fulfillerStatus = status
	o.fulfillerComment = comment
	return nil
}

func (o *Order) ensureChangeable() error {
	if o.id != 0 {
		return NewUnchangeableObjectError(o.uuid.String())
	}
	return nil
}

func (o *Order) setUUID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.uuid = id
	return nil
}

func (o *Order) setPatient(patient kernel.UUID) error {
	if err := patient.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("patient", err)
	}
	o.patient = patient
	return nil
}

func (o *Order) setAction(action Action) error {
	if err := action.Validate(); err != nil {
		return err
	}
	o.action = action
	return nil
}

func (o *Order) setVariant(variant Variant) error {
	if err := variant.Validate(); err != nil {
		return err
	}
	o.variant = variant
	return nil
}

func startsBefore(start *time.Time, end *time.Time) bool {
	if end == nil {
		return true
	}
	if start == nil {
		return true
	}
	return start.Before(*end)
}

func cloneUUID(u *kernel.UUID) *kernel.UUID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
