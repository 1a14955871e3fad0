// Package kernel provides the primitives shared by the order domain.
//
//   - UUID: identity value object, also used for every opaque reference an order holds
//     (patient, concept, drug, encounter, orderer)
//   - Instant helpers: orders are stored with whole-second precision, so every lifecycle
//     timestamp is truncated and "one moment before" means one second
//   - Clock: injectable source of "now"
package kernel
