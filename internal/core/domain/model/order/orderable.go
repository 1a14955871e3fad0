package order

import "clinicalorders/internal/core/domain/model/kernel"

// Orderable is what an order is about: a concept and, for drug orders, a drug.
type Orderable struct {
	concept kernel.UUID
	drug    *kernel.UUID
}

func NewOrderable(concept kernel.UUID, drug *kernel.UUID) Orderable {
	return Orderable{concept: concept, drug: cloneUUID(drug)}
}

func (o Orderable) Concept() kernel.UUID {
	return o.concept
}

func (o Orderable) Drug() *kernel.UUID {
	return cloneUUID(o.drug)
}

// IsSame reports whether both orderables have the same concept and the same drug
// (or no drug at all).
func (o Orderable) IsSame(other Orderable) bool {
	return o.concept.IsEqual(other.concept) && kernel.EqualPtr(o.drug, other.drug)
}

// Covers is the looser match used when a discontinuation names only a concept:
// a missing drug matches every drug of that concept.
func (o Orderable) Covers(other Orderable) bool {
	if !o.concept.IsEqual(other.concept) {
		return false
	}
	return o.drug == nil || kernel.EqualPtr(o.drug, other.drug)
}

func (o Orderable) String() string {
	if o.drug != nil {
		return o.concept.String() + "/" + o.drug.String()
	}
	return o.concept.String()
}
