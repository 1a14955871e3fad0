package order

import (
	"fmt"

	"clinicalorders/internal/pkg/errs"
)

// FulfillerStatus tracks execution of an order by whoever fills it (pharmacy, lab).
// It changes independently of Action and the active window. The zero value means
// the fulfiller has not reported anything yet.
type FulfillerStatus int

const (
	FulfillerStatusNone FulfillerStatus = iota
	FulfillerStatusReceived
	FulfillerStatusInProgress
	FulfillerStatusOnHold
	FulfillerStatusException
	FulfillerStatusDeclined
	FulfillerStatusCompleted
)

func getFulfillerStatusStrings() map[FulfillerStatus]string {
	return map[FulfillerStatus]string{
		FulfillerStatusNone:       "",
		FulfillerStatusReceived:   "RECEIVED",
		FulfillerStatusInProgress: "IN_PROGRESS",
		FulfillerStatusOnHold:     "ON_HOLD",
		FulfillerStatusException:  "EXCEPTION",
		FulfillerStatusDeclined:   "DECLINED",
		FulfillerStatusCompleted:  "COMPLETED",
	}
}

func (s FulfillerStatus) Validate() error {
	if _, ok := getFulfillerStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"fulfiller status is invalid",
			fmt.Errorf("%d is not a valid fulfiller status", s),
		)
	}
	return nil
}

func (s FulfillerStatus) String() string {
	return getFulfillerStatusStrings()[s]
}

func ParseFulfillerStatus(s string) (FulfillerStatus, error) {
	for st, str := range getFulfillerStatusStrings() {
		if str == s {
			return st, nil
		}
	}
	return FulfillerStatusNone, errs.NewValueIsInvalidErrorWithCause(
		"fulfiller status is invalid",
		fmt.Errorf("%q is not a valid fulfiller status", s),
	)
}
