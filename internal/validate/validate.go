// Package validate provides a debug/production split for expensive
// internal consistency checks: a Validatable can be checked cheaply in
// development builds (tag rtmem_debug) and for free everywhere else.
package validate

// Validatable is implemented by any component that can re-derive its own
// invariants by brute force, for use by DebugValidate.
type Validatable interface {
	Validate() error
}
