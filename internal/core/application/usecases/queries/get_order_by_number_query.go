package queries

import (
	"errors"
	"strings"

	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var ErrGetOrderByNumberQueryIsNotConstructed = errors.New(
	"GetOrderByNumberQuery must be created via NewGetOrderByNumberQuery constructor",
)

type GetOrderByNumberQuery struct { //nolint:recvcheck //using for validation
	number string
	guard  guard.ConstructorGuard
}

func NewGetOrderByNumberQuery(number string) (GetOrderByNumberQuery, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return GetOrderByNumberQuery{}, errs.NewValueIsRequiredError("orderNumber")
	}
	return GetOrderByNumberQuery{number: number, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderByNumberQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderByNumberQueryIsNotConstructed)
}

func (q GetOrderByNumberQuery) Number() string {
	return q.number
}
