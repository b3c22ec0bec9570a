//go:build !rtmem_debug

package validate

// DebugValidate is a no-op unless the rtmem_debug build tag is present.
func DebugValidate(v Validatable) {
}

// Enabled reports whether debug validation is compiled in.
const Enabled = false
