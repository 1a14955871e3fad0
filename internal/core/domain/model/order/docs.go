// Package order provides the clinical order aggregate and the value types around it.
//
// The package includes:
//   - Order: the aggregate root; a candidate until persisted, then frozen except for
//     stop, void and fulfiller status
//   - Action: NEW, REVISE or DISCONTINUE
//   - Variant: Generic, Drug or Test, and the assignability rule against an OrderType
//   - Orderable: concept plus optional drug, and the "same orderable" comparison
//   - Dosing: drug instructions and the auto-expire date they imply
//   - OrderType, CareSetting: classification entities referenced by uuid
//   - FulfillerStatus: execution tracking independent of the lifecycle
//   - the named lifecycle errors (UnchangeableObjectError, AmbiguousOrderError, ...)
//
// Key business rules:
//   - An order is active at t iff it is not voided, is not a DISCONTINUE, was activated
//     at or before t, and is neither stopped nor expired at t
//   - All instants are whole seconds; an order superseded at T is stopped at T-1s
//   - A DISCONTINUE order can never be stopped
package order
