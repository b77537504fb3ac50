package template

import (
	"fmt"
	"regexp"
	"sync"
)

// Entry is a single template rule: a pattern matched against a declaration's
// name or signature, the body rendered on a match, and nested rules that
// apply to declarations enclosed by a matching declaration.
type Entry struct {
	children *Set

	compiled   *regexp.Regexp
	compileErr error

	Name    string
	Pattern string
	Body    string

	once sync.Once

	Kind       Kind
	parentKind Kind

	UseSignature bool
	// Default marks rules shipped with the built-in rule set. Matching ignores it.
	Default   bool
	hasParent bool
}

// NewEntry creates a top-level entry.
func NewEntry(kind Kind, name, pattern, body string, useSignature bool) *Entry {
	return &Entry{
		Kind:         kind,
		Name:         name,
		Pattern:      pattern,
		Body:         body,
		UseSignature: useSignature,
	}
}

// Children returns the nested rule set, creating it on first use.
func (e *Entry) Children() *Set {
	if e.children == nil {
		e.children = NewSet()
	}

	return e.children
}

// HasChildren reports whether any nested rule exists.
func (e *Entry) HasChildren() bool {
	return e.children != nil && e.children.Len() > 0
}

// AddChild appends child to the nested rule list for kind and records e's
// kind as the child's parent kind.
func (e *Entry) AddChild(kind Kind, child *Entry) error {
	err := e.Children().Add(kind, child)
	if err != nil {
		return err
	}

	child.parentKind = e.Kind
	child.hasParent = true

	return nil
}

// ParentKind returns the kind of the enclosing rule for nested entries.
func (e *Entry) ParentKind() (Kind, bool) {
	return e.parentKind, e.hasParent
}

// Description names the entry's kind, qualified by its parent kind for
// nested entries (e.g. "Method of Type").
func (e *Entry) Description() string {
	if !e.hasParent {
		return e.Kind.Title()
	}

	return e.Kind.Title() + " of " + e.parentKind.Title()
}

// Regexp returns the compiled full-match expression. Compilation happens
// once; a failure is returned on every call and wraps [ErrPattern].
func (e *Entry) Regexp() (*regexp.Regexp, error) {
	e.once.Do(func() {
		re, err := regexp.Compile(`^(?:` + e.Pattern + `)$`)
		if err != nil {
			e.compileErr = fmt.Errorf("%w: rule %q (%s): %w", ErrPattern, e.Name, e.Kind, err)

			return
		}

		e.compiled = re
	})

	return e.compiled, e.compileErr
}

// Match tests target against the pattern with full-string semantics and
// returns the captured groups (index 0 is the whole match).
func (e *Entry) Match(target string) ([]string, bool, error) {
	re, err := e.Regexp()
	if err != nil {
		return nil, false, err
	}

	captures := re.FindStringSubmatch(target)
	if captures == nil {
		return nil, false, nil
	}

	return captures, true, nil
}

// Target selects the declaration text this entry matches against.
func (e *Entry) Target(name, signature string) string {
	if e.UseSignature {
		return signature
	}

	return name
}
