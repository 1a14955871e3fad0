package commands

import (
	"errors"

	"clinicalorders/internal/core/domain/model/order"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/pkg/errs"
)

// Recorder receives lifecycle outcomes for metrics.
type Recorder interface {
	OrderSaved(action string)
	OrderRejected(operation, kind string)
	OrderStopped()
	OrderVoided()
	OrderUnvoided()
}

type nopRecorder struct{}

func (nopRecorder) OrderSaved(string)            {}
func (nopRecorder) OrderRejected(string, string) {}
func (nopRecorder) OrderStopped()                {}
func (nopRecorder) OrderVoided()                 {}
func (nopRecorder) OrderUnvoided()               {}

// RejectionKind names the failure kind of err for metrics and logs. Errors that are
// not business-rule rejections are reported as "infrastructure".
func RejectionKind(err error) string {
	kinds := []struct {
		target error
		name   string
	}{
		{order.ErrUnchangeableObject, "unchangeable_object"},
		{order.ErrMissingRequiredProperty, "missing_required_property"},
		{order.ErrOrderTypeMismatch, "order_type_mismatch"},
		{order.ErrEditedOrderDoesNotMatchPrevious, "edited_order_does_not_match_previous"},
		{order.ErrAmbiguousOrder, "ambiguous_order"},
		{order.ErrCannotStopDiscontinuationOrder, "cannot_stop_discontinuation_order"},
		{order.ErrCannotStopInactiveOrder, "cannot_stop_inactive_order"},
		{order.ErrCannotUnvoidOrder, "cannot_unvoid_order"},
		{ports.ErrNotAuthorized, "not_authorized"},
		{errs.ErrObjectNotFound, "object_not_found"},
		{errs.ErrValueIsRequired, "value_is_required"},
		{errs.ErrValueIsInvalid, "value_is_invalid"},
		{errs.ErrValueIsOutOfRange, "value_is_out_of_range"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.name
		}
	}
	return "infrastructure"
}
