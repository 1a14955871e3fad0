package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lifecycle rejections. Each is a business-rule failure and is never retried.
var (
	ErrUnchangeableObject              = errors.New("order cannot be changed once saved")
	ErrMissingRequiredProperty         = errors.New("order is missing a required property")
	ErrOrderTypeMismatch               = errors.New("order type does not accept order variant")
	ErrEditedOrderDoesNotMatchPrevious = errors.New("edited order does not match previous order")
	ErrAmbiguousOrder                  = errors.New("order is ambiguous")
	ErrCannotStopDiscontinuationOrder  = errors.New("cannot stop a discontinuation order")
	ErrCannotStopInactiveOrder         = errors.New("cannot stop an inactive order")
	ErrCannotUnvoidOrder               = errors.New("cannot unvoid order")
)

// Fields reported by EditedOrderDoesNotMatchPreviousError.
const (
	FieldOrderable   = "orderable"
	FieldOrderType   = "orderType"
	FieldCareSetting = "careSetting"
	FieldVariant     = "variant"
)

// Properties reported by MissingRequiredPropertyError.
const (
	PropertyConcept       = "concept"
	PropertyPreviousOrder = "previousOrder"
	PropertyOrderType     = "orderType"
	PropertyCareSetting   = "careSetting"
)

type UnchangeableObjectError struct {
	OrderUUID string
}

func NewUnchangeableObjectError(orderUUID string) *UnchangeableObjectError {
	return &UnchangeableObjectError{OrderUUID: orderUUID}
}

func (e *UnchangeableObjectError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnchangeableObject, e.OrderUUID)
}

func (e *UnchangeableObjectError) Unwrap() error {
	return ErrUnchangeableObject
}

type MissingRequiredPropertyError struct {
	OrderUUID string
	Property  string
}

func NewMissingRequiredPropertyError(orderUUID, property string) *MissingRequiredPropertyError {
	return &MissingRequiredPropertyError{OrderUUID: orderUUID, Property: property}
}

func (e *MissingRequiredPropertyError) Error() string {
	return fmt.Sprintf("%s: %s (order %s)", ErrMissingRequiredProperty, e.Property, e.OrderUUID)
}

func (e *MissingRequiredPropertyError) Unwrap() error {
	return ErrMissingRequiredProperty
}

type OrderTypeMismatchError struct {
	OrderUUID       string
	Variant         Variant
	OrderTypeUUID   string
	DeclaredVariant Variant
}

func NewOrderTypeMismatchError(orderUUID string, variant Variant, orderType *OrderType) *OrderTypeMismatchError {
	return &OrderTypeMismatchError{
		OrderUUID:       orderUUID,
		Variant:         variant,
		OrderTypeUUID:   orderType.UUID().String(),
		DeclaredVariant: orderType.Variant(),
	}
}

func (e *OrderTypeMismatchError) Error() string {
	return fmt.Sprintf("%s: order %s is a %s order, type %s declares %s",
		ErrOrderTypeMismatch, e.OrderUUID, e.Variant, e.OrderTypeUUID, e.DeclaredVariant)
}

func (e *OrderTypeMismatchError) Unwrap() error {
	return ErrOrderTypeMismatch
}

// EditedOrderDoesNotMatchPreviousError names the first field that diverged.
type EditedOrderDoesNotMatchPreviousError struct {
	OrderUUID         string
	PreviousOrderUUID string
	Field             string
}

func NewEditedOrderDoesNotMatchPreviousError(orderUUID, previousUUID, field string) *EditedOrderDoesNotMatchPreviousError {
	return &EditedOrderDoesNotMatchPreviousError{
		OrderUUID:         orderUUID,
		PreviousOrderUUID: previousUUID,
		Field:             field,
	}
}

func (e *EditedOrderDoesNotMatchPreviousError) Error() string {
	return fmt.Sprintf("%s: %s of order %s differs from previous order %s",
		ErrEditedOrderDoesNotMatchPrevious, e.Field, e.OrderUUID, e.PreviousOrderUUID)
}

func (e *EditedOrderDoesNotMatchPreviousError) Unwrap() error {
	return ErrEditedOrderDoesNotMatchPrevious
}

// AmbiguousOrderError lists the active orders that make the candidate ambiguous,
// either as conflicts or as competing discontinuation targets.
type AmbiguousOrderError struct {
	OrderUUID   string
	Conflicting []string
	Reason      string
}

func NewAmbiguousOrderError(orderUUID, reason string, conflicting []string) *AmbiguousOrderError {
	return &AmbiguousOrderError{OrderUUID: orderUUID, Reason: reason, Conflicting: conflicting}
}

func (e *AmbiguousOrderError) Error() string {
	return fmt.Sprintf("%s: order %s %s [%s]",
		ErrAmbiguousOrder, e.OrderUUID, e.Reason, strings.Join(e.Conflicting, ", "))
}

func (e *AmbiguousOrderError) Unwrap() error {
	return ErrAmbiguousOrder
}

type CannotStopDiscontinuationOrderError struct {
	OrderUUID string
}

func NewCannotStopDiscontinuationOrderError(orderUUID string) *CannotStopDiscontinuationOrderError {
	return &CannotStopDiscontinuationOrderError{OrderUUID: orderUUID}
}

func (e *CannotStopDiscontinuationOrderError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCannotStopDiscontinuationOrder, e.OrderUUID)
}

func (e *CannotStopDiscontinuationOrderError) Unwrap() error {
	return ErrCannotStopDiscontinuationOrder
}

type CannotStopInactiveOrderError struct {
	OrderUUID string
	At        time.Time
}

func NewCannotStopInactiveOrderError(orderUUID string, at time.Time) *CannotStopInactiveOrderError {
	return &CannotStopInactiveOrderError{OrderUUID: orderUUID, At: at}
}

func (e *CannotStopInactiveOrderError) Error() string {
	return fmt.Sprintf("%s: %s is not active at %s", ErrCannotStopInactiveOrder, e.OrderUUID, e.At.Format(time.RFC3339))
}

func (e *CannotStopInactiveOrderError) Unwrap() error {
	return ErrCannotStopInactiveOrder
}

type CannotUnvoidOrderError struct {
	OrderUUID         string
	PreviousOrderUUID string
	Cause             error
}

func NewCannotUnvoidOrderError(orderUUID, previousUUID string) *CannotUnvoidOrderError {
	return &CannotUnvoidOrderError{OrderUUID: orderUUID, PreviousOrderUUID: previousUUID}
}

func NewCannotUnvoidOrderErrorWithCause(orderUUID, previousUUID string, cause error) *CannotUnvoidOrderError {
	return &CannotUnvoidOrderError{OrderUUID: orderUUID, PreviousOrderUUID: previousUUID, Cause: cause}
}

func (e *CannotUnvoidOrderError) Error() string {
	msg := fmt.Sprintf("%s: %s, previous order %s is not eligible to be stopped again",
		ErrCannotUnvoidOrder, e.OrderUUID, e.PreviousOrderUUID)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *CannotUnvoidOrderError) Unwrap() error {
	return ErrCannotUnvoidOrder
}
