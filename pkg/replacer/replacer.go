// Package replacer substitutes recognized identifier words (shortcuts) with
// configured text, separately for field-like and method-like declarations.
package replacer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/autodoc/pkg/levenshtein"
)

// Sentinel errors for rule decoding.
var (
	// ErrUnknownScope indicates a scope name other than field, method, or both.
	ErrUnknownScope = errors.New("unknown replacement scope")
	// ErrUnknownMode indicates a mode name other than prefix or all.
	ErrUnknownMode = errors.New("unknown replacement mode")
)

// Scope selects which declarations a rule applies to.
type Scope int

// Replacement scopes.
const (
	ScopeField Scope = iota
	ScopeMethod
	ScopeBoth
)

var scopeNames = map[Scope]string{
	ScopeField:  "field",
	ScopeMethod: "method",
	ScopeBoth:   "both",
}

// String returns the scope name used in rule files.
func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}

	return fmt.Sprintf("scope(%d)", int(s))
}

// Includes reports whether a rule with scope s applies to other.
func (s Scope) Includes(other Scope) bool {
	return s == ScopeBoth || s == other
}

// ParseScope maps a scope name (case-insensitive) to its Scope.
func ParseScope(name string) (Scope, error) {
	needle := strings.ToLower(strings.TrimSpace(name))

	for scope, candidate := range scopeNames {
		if candidate == needle {
			return scope, nil
		}
	}

	return 0, fmt.Errorf("%w: %q%s", ErrUnknownScope, name, levenshtein.Hint(needle, slices.Sorted(maps.Values(scopeNames))))
}

// MarshalText implements [encoding.TextMarshaler].
func (s Scope) MarshalText() ([]byte, error) {
	name, ok := scopeNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScope, int(s))
	}

	return []byte(name), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Scope) UnmarshalText(text []byte) error {
	parsed, err := ParseScope(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Mode selects where in the word list a rule may substitute.
type Mode int

// Replacement modes.
const (
	// ModePrefix substitutes only the first word.
	ModePrefix Mode = iota
	// ModeAll substitutes every occurrence.
	ModeAll
)

// String returns the mode name used in rule files.
func (m Mode) String() string {
	switch m {
	case ModePrefix:
		return "prefix"
	case ModeAll:
		return "all"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a mode name (case-insensitive) to its Mode.
func ParseMode(name string) (Mode, error) {
	needle := strings.ToLower(strings.TrimSpace(name))

	switch needle {
	case "prefix":
		return ModePrefix, nil
	case "all":
		return ModeAll, nil
	default:
		return 0, fmt.Errorf("%w: %q%s", ErrUnknownMode, name, levenshtein.Hint(needle, []string{"all", "prefix"}))
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModePrefix && m != ModeAll {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Rule maps a shortcut word to its replacement text.
type Rule struct {
	Shortcut    string
	Replacement string
	Scope       Scope
	Mode        Mode
}

// Key identifies a rule: its scope and lower-cased shortcut.
func (r Rule) Key() string {
	return r.Scope.String() + ":" + strings.ToLower(r.Shortcut)
}

// Replacer applies keyword rules to split identifier words. It is immutable
// after construction and safe for concurrent use.
type Replacer struct {
	field  map[string]Rule
	method map[string]Rule
}

// New builds the field and method lookup maps from rules. A rule scoped to
// both lands in both maps. Later rules with the same shortcut win.
func New(rules []Rule) *Replacer {
	r := &Replacer{
		field:  make(map[string]Rule, len(rules)),
		method: make(map[string]Rule, len(rules)),
	}

	for _, rule := range rules {
		key := strings.ToLower(rule.Shortcut)

		if rule.Scope.Includes(ScopeField) {
			r.field[key] = rule
		}

		if rule.Scope.Includes(ScopeMethod) {
			r.method[key] = rule
		}
	}

	return r
}

// Lookup returns the rule for word in scope, ignoring case. ScopeBoth
// consults the field map first, then the method map.
func (r *Replacer) Lookup(word string, scope Scope) (Rule, bool) {
	key := strings.ToLower(word)

	switch scope {
	case ScopeField:
		rule, ok := r.field[key]

		return rule, ok
	case ScopeMethod:
		rule, ok := r.method[key]

		return rule, ok
	case ScopeBoth:
		if rule, ok := r.field[key]; ok {
			return rule, true
		}

		rule, ok := r.method[key]

		return rule, ok
	}

	return Rule{}, false
}

// Apply substitutes each word that has a rule in scope, provided it is the
// first word or the rule's mode is [ModeAll]. Empty replacements drop the word.
func (r *Replacer) Apply(words []string, scope Scope) []string {
	out := make([]string, 0, len(words))

	for idx, word := range words {
		rule, ok := r.Lookup(word, scope)
		if !ok || (idx != 0 && rule.Mode != ModeAll) {
			out = append(out, word)

			continue
		}

		if rule.Replacement == "" {
			continue
		}

		out = append(out, rule.Replacement)
	}

	return out
}
