// Package template holds the rule model of the documentation engine: single
// template entries and the kind-partitioned sets that order them.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/autodoc/pkg/levenshtein"
)

// Sentinel errors for the template model.
var (
	// ErrInvalidKind indicates a declaration kind outside the closed enumeration.
	ErrInvalidKind = errors.New("invalid declaration kind")
	// ErrPattern indicates a template pattern that does not compile.
	ErrPattern = errors.New("invalid template pattern")
)

// Kind identifies the declaration kind a template applies to.
type Kind int

// Declaration kinds. Kinds partition template sets and never mix.
const (
	KindType Kind = iota
	KindField
	KindMethod
	KindParameter
	KindException

	kindCount = int(KindException) + 1
)

var kindNames = [kindCount]string{
	KindType:      "type",
	KindField:     "field",
	KindMethod:    "method",
	KindParameter: "parameter",
	KindException: "exception",
}

var kindTitles = [kindCount]string{
	KindType:      "Type",
	KindField:     "Field",
	KindMethod:    "Method",
	KindParameter: "Parameter",
	KindException: "Exception",
}

// Kinds returns every declaration kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindType, KindField, KindMethod, KindParameter, KindException}
}

// Valid reports whether k belongs to the closed enumeration.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < kindCount
}

// String returns the lower-case kind name used in rule files.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// Title returns the capitalized kind name used in descriptions.
func (k Kind) Title() string {
	if !k.Valid() {
		return k.String()
	}

	return kindTitles[k]
}

// ParseKind maps a kind name (case-insensitive) to its Kind.
func ParseKind(name string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(name))

	for idx, candidate := range kindNames {
		if candidate == needle {
			return Kind(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %q%s", ErrInvalidKind, name, levenshtein.Hint(needle, kindNames[:]))
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(k))
	}

	return []byte(kindNames[k]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

func mustValid(k Kind) {
	if !k.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidKind, int(k)))
	}
}
