package order

import (
	"errors"
	"fmt"
	"strings"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var ErrCareSettingIsNotConstructed = errors.New("CareSetting must be created via NewCareSetting")

// CareSettingKind is the clinical context a care setting represents.
type CareSettingKind int

const (
	CareSettingKindUnknown CareSettingKind = iota
	CareSettingKindOutpatient
	CareSettingKindInpatient
)

func (k CareSettingKind) String() string {
	switch k {
	case CareSettingKindOutpatient:
		return "OUTPATIENT"
	case CareSettingKindInpatient:
		return "INPATIENT"
	case CareSettingKindUnknown:
	}
	return "UNKNOWN"
}

func (k CareSettingKind) Validate() error {
	if k != CareSettingKindOutpatient && k != CareSettingKindInpatient {
		return errs.NewValueIsInvalidErrorWithCause("care setting kind is invalid", fmt.Errorf("%d is not a valid kind", k))
	}
	return nil
}

func ParseCareSettingKind(s string) (CareSettingKind, error) {
	for _, k := range []CareSettingKind{CareSettingKindOutpatient, CareSettingKindInpatient} {
		if k.String() == s {
			return k, nil
		}
	}
	return CareSettingKindUnknown, errs.NewValueIsInvalidErrorWithCause(
		"care setting kind is invalid",
		fmt.Errorf("%q is not a valid care setting kind", s),
	)
}

// CareSetting scopes which orders may conflict with each other.
type CareSetting struct {
	uuid    kernel.UUID
	name    string
	kind    CareSettingKind
	retired bool
	guard   guard.ConstructorGuard
}

func NewCareSetting(id kernel.UUID, name string, kind CareSettingKind, retired bool) (*CareSetting, error) {
	var errList []error
	if err := id.Validate(); err != nil {
		errList = append(errList, err)
	}
	if strings.TrimSpace(name) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("name"))
	}
	if err := kind.Validate(); err != nil {
		errList = append(errList, err)
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return &CareSetting{
		uuid:    id,
		name:    strings.TrimSpace(name),
		kind:    kind,
		retired: retired,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c *CareSetting) Validate() error {
	if c == nil {
		return ErrCareSettingIsNotConstructed
	}
	return c.guard.Validate(ErrCareSettingIsNotConstructed)
}

func (c *CareSetting) UUID() kernel.UUID {
	return c.uuid
}

func (c *CareSetting) Name() string {
	return c.name
}

func (c *CareSetting) Kind() CareSettingKind {
	return c.kind
}

func (c *CareSetting) IsRetired() bool {
	return c.retired
}
