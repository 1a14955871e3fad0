package order

import (
	"fmt"

	"clinicalorders/internal/pkg/errs"
)

// Variant is the concrete kind of an order. Order types declare the variant they accept.
type Variant int

const (
	VariantUnknown Variant = iota
	// VariantGeneric is a plain order; as a declared order type variant it accepts every variant.
	VariantGeneric
	// VariantDrug orders carry a drug and dosing and are subject to overlap checks.
	VariantDrug
	// VariantTest orders request a lab or imaging test.
	VariantTest
)

func getVariantStrings() map[Variant]string {
	return map[Variant]string{
		VariantUnknown: "Unknown",
		VariantGeneric: "Generic",
		VariantDrug:    "Drug",
		VariantTest:    "Test",
	}
}

func (v Variant) Validate() error {
	if v <= VariantUnknown || v > VariantTest {
		return errs.NewValueIsInvalidErrorWithCause("variant is invalid", fmt.Errorf("%d is not a valid variant", v))
	}
	return nil
}

func (v Variant) String() string {
	if str, ok := getVariantStrings()[v]; ok {
		return str
	}
	return "Unknown"
}

// IsAssignableTo reports whether an order of variant v may carry an order type that
// declares the given variant.
func (v Variant) IsAssignableTo(declared Variant) bool {
	if v.Validate() != nil || declared.Validate() != nil {
		return false
	}
	return declared == VariantGeneric || declared == v
}

func ParseVariant(s string) (Variant, error) {
	for v, str := range getVariantStrings() {
		if str == s && v != VariantUnknown {
			return v, nil
		}
	}
	return VariantUnknown, errs.NewValueIsInvalidErrorWithCause("variant is invalid", fmt.Errorf("%q is not a valid variant", s))
}
