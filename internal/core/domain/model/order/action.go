package order

import (
	"fmt"

	"clinicalorders/internal/pkg/errs"
)

// Action is what an order does to the patient's active order list.
//
//	NEW ──> REVISE ──> REVISE ... ──> DISCONTINUE
//
// A REVISE supersedes its previous order and stops it; a DISCONTINUE only stops its
// previous order and is never itself active.
type Action int

const (
	// ActionUnknown catches uninitialized values.
	ActionUnknown Action = iota
	ActionNew
	ActionRevise
	ActionDiscontinue
)

func getActionStrings() map[Action]string {
	return map[Action]string{
		ActionUnknown:     "UNKNOWN",
		ActionNew:         "NEW",
		ActionRevise:      "REVISE",
		ActionDiscontinue: "DISCONTINUE",
	}
}

// Validate rejects ActionUnknown and out-of-range values.
func (a Action) Validate() error {
	if a <= ActionUnknown || a > ActionDiscontinue {
		return errs.NewValueIsInvalidErrorWithCause("action is invalid", fmt.Errorf("%d is not a valid action", a))
	}
	return nil
}

func (a Action) String() string {
	if str, ok := getActionStrings()[a]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsEdit reports whether the action supersedes a previous order (REVISE or DISCONTINUE).
func (a Action) IsEdit() bool {
	return a == ActionRevise || a == ActionDiscontinue
}

// ParseAction maps the persisted/CLI name back to an Action.
func ParseAction(s string) (Action, error) {
	for a, str := range getActionStrings() {
		if str == s && a != ActionUnknown {
			return a, nil
		}
	}
	return ActionUnknown, errs.NewValueIsInvalidErrorWithCause("action is invalid", fmt.Errorf("%q is not a valid action", s))
}
