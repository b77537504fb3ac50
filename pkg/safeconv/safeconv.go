// Package safeconv converts between integer types, panicking when the value
// does not survive the conversion.
package safeconv

import "fmt"

// Integer is any built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Must converts v to To. Use only where overflow is logically impossible,
// such as tree-sitter byte offsets into an in-memory source or editor line
// numbers.
func Must[To, From Integer](v From) To {
	out := To(v)

	if From(out) != v || (v < 0) != (out < 0) {
		panic(fmt.Sprintf("safeconv: %v out of range for %T", v, out))
	}

	return out
}
