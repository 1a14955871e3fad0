package order

import (
	"errors"
	"strings"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
	"clinicalorders/internal/pkg/guard"
)

var ErrOrderTypeIsNotConstructed = errors.New("OrderType must be created via NewOrderType or RestoreOrderType")

// OrderType classifies orders ("Drug Order", "Lab Test", ...). Types form a tree through
// their parent reference; querying by a type also matches every descendant.
type OrderType struct {
	uuid           kernel.UUID
	name           string
	variant        Variant
	parent         *kernel.UUID
	retired        bool
	conceptClasses []kernel.UUID
	guard          guard.ConstructorGuard
}

// NewOrderType creates an unretired type. parent may be nil for a root type.
func NewOrderType(id kernel.UUID, name string, variant Variant, parent *kernel.UUID) (*OrderType, error) {
	t := &OrderType{guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		t.setUUID(id),
		t.setName(name),
		t.setVariant(variant),
		t.SetParent(parent),
	); err != nil {
		return nil, err
	}
	return t, nil
}

// RestoreOrderType rebuilds a persisted type.
func RestoreOrderType(
	id kernel.UUID,
	name string,
	variant Variant,
	parent *kernel.UUID,
	retired bool,
	conceptClasses []kernel.UUID,
) (*OrderType, error) {
	t, err := NewOrderType(id, name, variant, parent)
	if err != nil {
		return nil, err
	}
	t.retired = retired
	for _, c := range conceptClasses {
		if err = t.MapConceptClass(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *OrderType) Validate() error {
	if t == nil {
		return ErrOrderTypeIsNotConstructed
	}
	return t.guard.Validate(ErrOrderTypeIsNotConstructed)
}

func (t *OrderType) UUID() kernel.UUID {
	return t.uuid
}

func (t *OrderType) Name() string {
	return t.name
}

// Variant is the order variant this type declares.
func (t *OrderType) Variant() Variant {
	return t.variant
}

func (t *OrderType) Parent() *kernel.UUID {
	return t.parent
}

func (t *OrderType) IsRetired() bool {
	return t.retired
}

// ConceptClasses returns the concept classes whose concepts default to this type.
func (t *OrderType) ConceptClasses() []kernel.UUID {
	out := make([]kernel.UUID, len(t.conceptClasses))
	copy(out, t.conceptClasses)
	return out
}

// Accepts reports whether orders of the given variant may carry this type.
func (t *OrderType) Accepts(v Variant) bool {
	return v.IsAssignableTo(t.variant)
}

func (t *OrderType) Retire() {
	t.retired = true
}

func (t *OrderType) Unretire() {
	t.retired = false
}

// SetParent re-parents the type. A type cannot be its own parent; longer cycles are
// caught when the hierarchy is walked.
func (t *OrderType) SetParent(parent *kernel.UUID) error {
	if parent == nil {
		t.parent = nil
		return nil
	}
	if err := parent.Validate(); err != nil {
		return err
	}
	if parent.IsEqual(t.uuid) {
		return errs.NewValueIsInvalidErrorWithCause("parent", errors.New("order type cannot be its own parent"))
	}
	p := *parent
	t.parent = &p
	return nil
}

func (t *OrderType) MapConceptClass(class kernel.UUID) error {
	if err := class.Validate(); err != nil {
		return err
	}
	for _, c := range t.conceptClasses {
		if c.IsEqual(class) {
			return nil
		}
	}
	t.conceptClasses = append(t.conceptClasses, class)
	return nil
}

func (t *OrderType) setUUID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.uuid = id
	return nil
}

func (t *OrderType) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	t.name = name
	return nil
}

func (t *OrderType) setVariant(v Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	t.variant = v
	return nil
}
