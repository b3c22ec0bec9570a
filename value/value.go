// Package value implements the tagged payload type that flows through every
// tlc runtime operation: either a plain integer or a handle into the heap
// managed by package memcell.
package value

import (
	"github.com/pkg/errors"
)

// Tag distinguishes the two shapes a Value can take.
type Tag uint8

const (
	// Int marks a Value whose Payload is the value itself.
	Int Tag = iota
	// Handle marks a Value whose Payload is a heap allocation id.
	Handle
)

func (t Tag) String() string {
	switch t {
	case Int:
		return "Int"
	case Handle:
		return "Handle"
	default:
		return "Tag(?)"
	}
}

// TypeMismatch is returned by any binary/unary operation applied to a
// Handle-tagged operand.
var TypeMismatch error = errors.New("incompatible types of operation operands")

// Value is the tagged 64-bit payload that flows through every runtime
// operation. The zero Value is Int(0), which doubles as the deterministic
// fill value for freshly allocated cell slots.
type Value struct {
	Payload int64
	Tag     Tag
}

// Int64 constructs an Int-tagged Value.
func Int64(payload int64) Value {
	return Value{Payload: payload, Tag: Int}
}

// HandleOf constructs a Handle-tagged Value for the given allocation id.
// Callers are expected to only use ids that memcell.Heap has issued.
func HandleOf(id int64) Value {
	return Value{Payload: id, Tag: Handle}
}

// IsHandle reports whether v is Handle-tagged.
func (v Value) IsHandle() bool {
	return v.Tag == Handle
}

// ToInteger reinterprets v's payload as an Int-tagged Value without
// consulting the heap. It is total: it never fails, even for a Handle.
func (v Value) ToInteger() Value {
	return Value{Payload: v.Payload, Tag: Int}
}

func checkIntPair(a, b Value) error {
	if a.Tag != Int || b.Tag != Int {
		return TypeMismatch
	}
	return nil
}

// Add returns a + b. Both operands must be Int-tagged.
func (a Value) Add(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload + b.Payload), nil
}

// Sub returns a - b. Both operands must be Int-tagged.
func (a Value) Sub(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload - b.Payload), nil
}

// Mul returns a * b. Both operands must be Int-tagged.
func (a Value) Mul(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload * b.Payload), nil
}

// Div returns a / b. Both operands must be Int-tagged. Division by zero
// follows Go's native signed-integer behavior: a runtime panic.
func (a Value) Div(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload / b.Payload), nil
}

// Mod returns a % b. Both operands must be Int-tagged.
func (a Value) Mod(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload % b.Payload), nil
}

// And returns the bitwise AND of a and b. Both operands must be Int-tagged.
func (a Value) And(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload & b.Payload), nil
}

// Or returns the bitwise OR of a and b. Both operands must be Int-tagged.
func (a Value) Or(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload | b.Payload), nil
}

// Xor returns the bitwise XOR of a and b. Both operands must be Int-tagged.
func (a Value) Xor(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(a.Payload ^ b.Payload), nil
}

// boolInt converts a Go bool into the C-like 0/1 integer convention used
// throughout the relational and logical reductions below.
func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// LAnd returns the C-style logical AND of a and b (nonzero is truthy).
func (a Value) LAnd(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload != 0 && b.Payload != 0)), nil
}

// LOr returns the C-style logical OR of a and b (nonzero is truthy).
func (a Value) LOr(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload != 0 || b.Payload != 0)), nil
}

// Lt returns 1 if a < b, else 0. Both operands must be Int-tagged.
func (a Value) Lt(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload < b.Payload)), nil
}

// Gt returns 1 if a > b, else 0. Both operands must be Int-tagged.
func (a Value) Gt(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload > b.Payload)), nil
}

// Le returns 1 if a <= b, else 0. Both operands must be Int-tagged.
func (a Value) Le(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload <= b.Payload)), nil
}

// Ge returns 1 if a >= b, else 0. Both operands must be Int-tagged.
func (a Value) Ge(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload >= b.Payload)), nil
}

// Eq returns 1 if a == b, else 0. Both operands must be Int-tagged.
func (a Value) Eq(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload == b.Payload)), nil
}

// Ne returns 1 if a != b, else 0. Both operands must be Int-tagged.
func (a Value) Ne(b Value) (Value, error) {
	if err := checkIntPair(a, b); err != nil {
		return Value{}, err
	}
	return Int64(boolInt(a.Payload != b.Payload)), nil
}

// Neg returns the arithmetic negation of v. v must be Int-tagged.
func (v Value) Neg() (Value, error) {
	if v.Tag != Int {
		return Value{}, TypeMismatch
	}
	return Int64(-v.Payload), nil
}

// Not returns the bitwise complement of v. v must be Int-tagged.
func (v Value) Not() (Value, error) {
	if v.Tag != Int {
		return Value{}, TypeMismatch
	}
	return Int64(^v.Payload), nil
}
