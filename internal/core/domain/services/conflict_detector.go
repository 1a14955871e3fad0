package services

import (
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/model/order"
)

// OverlapPolicy decides which order variants may not have two overlapping active
// orders for the same orderable.
type OverlapPolicy func(order.Variant) bool

// DrugOrdersOnly is the default policy. Test and generic orders may overlap freely.
func DrugOrdersOnly(v order.Variant) bool {
	return v == order.VariantDrug
}

// ConflictDetector decides whether saving a candidate would leave two active orders
// for the same orderable in the same patient and care setting.
//
// Two orders conflict when all of the following hold:
//   - they are different orders with the same orderable
//   - neither is the other's previous order
//   - their active windows overlap
//   - the candidate's variant falls under the overlap policy
//   - the active order is not on the caller's parallel allow-list
type ConflictDetector struct {
	policy OverlapPolicy
}

// NewConflictDetector builds a detector. A nil policy means DrugOrdersOnly.
func NewConflictDetector(policy OverlapPolicy) ConflictDetector {
	if policy == nil {
		policy = DrugOrdersOnly
	}
	return ConflictDetector{policy: policy}
}

// Conflicts returns the active orders the candidate conflicts with, in input order.
// The caller is expected to pass active orders of the candidate's patient and care setting.
func (d ConflictDetector) Conflicts(candidate *order.Order, active []*order.Order, allowedParallel []kernel.UUID) []*order.Order {
	policy := d.policy
	if policy == nil {
		policy = DrugOrdersOnly
	}
	if !policy(candidate.Variant()) {
		return nil
	}

	allowed := make(map[kernel.UUID]struct{}, len(allowedParallel))
	for _, id := range allowedParallel {
		allowed[id] = struct{}{}
	}

	var conflicts []*order.Order
	for _, other := range active {
		if other.IsEqual(candidate) {
			continue
		}
		if _, ok := allowed[other.UUID()]; ok {
			continue
		}
		if !candidate.Orderable().IsSame(other.Orderable()) {
			continue
		}
		if candidate.Supersedes(other) || other.Supersedes(candidate) {
			continue
		}
		if !candidate.Overlaps(other) {
			continue
		}
		conflicts = append(conflicts, other)
	}
	return conflicts
}

func (d ConflictDetector) HasConflict(candidate *order.Order, active []*order.Order, allowedParallel []kernel.UUID) bool {
	return len(d.Conflicts(candidate, active, allowedParallel)) > 0
}
