package queries

import (
	"errors"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/guard"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery asks for a patient's orders in effect at an instant.
//
// Example:
//
//	query, err := NewGetActiveOrdersQuery(patient, &drugOrderType, &outpatient, nil)
//	if err != nil {
//	    return err
//	}
//	active, err := handler.Handle(ctx, query)
type GetActiveOrdersQuery struct { //nolint:recvcheck //using for validation
	patient     kernel.UUID
	orderType   *kernel.UUID
	careSetting *kernel.UUID
	asOf        *time.Time

	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery builds the query. orderType also matches all of its
// subtypes; nil orderType, careSetting or asOf leave that dimension unrestricted
// (asOf then means now).
func NewGetActiveOrdersQuery(
	patient kernel.UUID,
	orderType *kernel.UUID,
	careSetting *kernel.UUID,
	asOf *time.Time,
) (GetActiveOrdersQuery, error) {
	var errList []error
	if err := patient.Validate(); err != nil {
		errList = append(errList, err)
	}
	if orderType != nil {
		if err := orderType.Validate(); err != nil {
			errList = append(errList, err)
		}
	}
	if careSetting != nil {
		if err := careSetting.Validate(); err != nil {
			errList = append(errList, err)
		}
	}
	if err := errors.Join(errList...); err != nil {
		return GetActiveOrdersQuery{}, err
	}

	q := GetActiveOrdersQuery{
		patient: patient,
		asOf:    kernel.InstantPtr(asOf),
		guard:   guard.NewConstructorGuard(),
	}
	if orderType != nil {
		q.orderType = orderType.Ptr()
	}
	if careSetting != nil {
		q.careSetting = careSetting.Ptr()
	}
	return q, nil
}

func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

func (q GetActiveOrdersQuery) Patient() kernel.UUID {
	return q.patient
}

func (q GetActiveOrdersQuery) OrderType() *kernel.UUID {
	return q.orderType
}

func (q GetActiveOrdersQuery) CareSetting() *kernel.UUID {
	return q.careSetting
}

func (q GetActiveOrdersQuery) AsOf() *time.Time {
	return kernel.InstantPtr(q.asOf)
}
