// Package errs provides the generic error kinds shared across the order service.
//
// Each kind follows the same shape:
//   - a sentinel error variable (e.g. ErrValueIsRequired) usable with errors.Is
//   - a struct carrying the offending parameter and an optional cause
//   - constructors with and without a cause
//   - Error() for the message and Unwrap() returning the sentinel
//
// Lifecycle-specific rejections (ambiguous orders, illegal stops, ...) live next to the
// Order aggregate and follow the same pattern.
package errs
