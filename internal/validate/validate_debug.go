//go:build rtmem_debug

package validate

// DebugValidate calls Validate on v and panics if it returns an error.
// This method no-ops unless the rtmem_debug build tag is present.
func DebugValidate(v Validatable) {
	if err := v.Validate(); err != nil {
		panic(err)
	}
}

// Enabled reports whether debug validation is compiled in.
const Enabled = true
