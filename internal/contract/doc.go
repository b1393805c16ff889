// Package contract defines the insurance-contract event model and the
// materialized Contract value.
//
// This package contains types only, plus their canonical encoding. All other
// internal packages import contract; contract imports nothing internal except
// calendar.
//
// Key design constraints:
//   - Event is a closed union: only the four event types in this package
//     implement it (unexported marker method).
//   - Exhaustive dispatch goes through Visitor. Adding an event kind adds a
//     Visitor method, so every consumer stops compiling until it handles it.
//   - Contract is a value type. Every With* method returns a new value.
//   - Premiums are int64 minor currency units. No floats anywhere.
//   - Premium deltas are applied as given: no sign checks, no clamping.
package contract
