// Package queries holds the read side of the order service: active orders for a
// patient, lookups by order number, revision history and the store-wide audit of
// orders that should never be active together.
package queries
