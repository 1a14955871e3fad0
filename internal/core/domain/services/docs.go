// Package services provides domain services that work across several orders or
// across order types rather than on a single aggregate.
//
// The package includes:
//   - OrderTypeHierarchy: breadth-first resolution of an order type's descendants,
//     rejecting cyclic parent references with ErrOrderTypeCycle
//   - ConflictDetector: decides whether a candidate order would be ambiguous next to
//     the patient's active orders
package services
