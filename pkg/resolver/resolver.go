// Package resolver selects the template that documents a declaration.
//
// A [Resolver] is fed declarations in document order (enclosing declarations
// before the declarations they contain). It remembers the last matched type
// and method so that nested rules of the enclosing match are tried before the
// global rules, and recomputes that scope whenever the caller moves to a
// different enclosing declaration. A Resolver is not safe for concurrent use;
// create one per traversal.
package resolver

import (
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

// Declaration is the view of a source declaration the resolver needs.
//
// Enclosing must return an untyped nil when there is no enclosing
// declaration, and must return identity-stable values across calls.
type Declaration interface {
	Kind() template.Kind
	Name() string
	Signature() string
	Enclosing() Declaration
	Is(other Declaration) bool
}

// MatchingElement is the result of a successful match. Parent links to the
// match of the enclosing type or method scope, up to the root.
type MatchingElement struct {
	Declaration Declaration
	Rule        *template.Entry
	Parent      *MatchingElement
	Captures    []string
}

// Group returns capture group idx, or "" when the group does not exist.
func (m *MatchingElement) Group(idx int) string {
	if idx < 0 || idx >= len(m.Captures) {
		return ""
	}

	return m.Captures[idx]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug records. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver matches declarations against a template set, keeping the type and
// method scope of the most recent matches.
type Resolver struct {
	set         *template.Set
	logger      *slog.Logger
	typeScope   *MatchingElement
	methodScope *MatchingElement
}

// New creates a Resolver over set.
func New(set *template.Set, opts ...Option) *Resolver {
	r := &Resolver{set: set}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the best matching template for decl, or nil when no rule
// matches. A pattern that fails to compile is returned as an error wrapping
// [template.ErrPattern].
func (r *Resolver) Resolve(decl Declaration) (*MatchingElement, error) {
	kind := decl.Kind()
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d for %q", template.ErrInvalidKind, int(kind), decl.Name())
	}

	scope, err := r.refreshScope(decl, kind)
	if err != nil {
		return nil, err
	}

	element, err := r.match(decl, kind, scope)
	if err != nil {
		return nil, err
	}

	switch kind {
	case template.KindType:
		r.typeScope = element
	case template.KindMethod:
		r.methodScope = element
	case template.KindField, template.KindParameter, template.KindException:
	}

	return element, nil
}

// refreshScope brings the cached scope up to date for decl and returns the
// scope element its candidates come from.
func (r *Resolver) refreshScope(decl Declaration, kind template.Kind) (*MatchingElement, error) {
	enclosing := decl.Enclosing()

	switch kind {
	case template.KindType, template.KindField, template.KindMethod:
		if enclosing == nil {
			r.typeScope = nil

			return nil, nil
		}

		if enclosing.Kind() == template.KindType && !sameDeclaration(r.typeScope, enclosing) {
			r.debug("refresh type scope", decl, enclosing)

			_, err := r.Resolve(enclosing)
			if err != nil {
				return nil, err
			}

			r.methodScope = nil
		}

		return r.typeScope, nil

	case template.KindParameter, template.KindException:
		if enclosing == nil {
			r.methodScope = nil

			return nil, nil
		}

		if enclosing.Kind() == template.KindMethod && !sameDeclaration(r.methodScope, enclosing) {
			r.debug("refresh method scope", decl, enclosing)

			_, err := r.Resolve(enclosing)
			if err != nil {
				return nil, err
			}
		}

		return r.methodScope, nil
	}

	return nil, nil
}

// match tries the scope's nested rules for kind, then the global rules.
func (r *Resolver) match(decl Declaration, kind template.Kind, scope *MatchingElement) (*MatchingElement, error) {
	var scoped []*template.Entry
	if scope != nil {
		scoped = r.set.ChildEntries(scope.Rule, kind)
	}

	for listIdx, candidates := range [2][]*template.Entry{scoped, r.set.Entries(kind)} {
		for _, rule := range candidates {
			captures, ok, err := rule.Match(rule.Target(decl.Name(), decl.Signature()))
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			if r.logger != nil {
				r.logger.Debug("template matched",
					slog.String("kind", kind.String()),
					slog.String("declaration", decl.Name()),
					slog.String("rule", rule.Name),
					slog.Bool("scoped", listIdx == 0),
				)
			}

			return &MatchingElement{
				Declaration: decl,
				Rule:        rule,
				Captures:    captures,
				Parent:      scope,
			}, nil
		}
	}

	return nil, nil
}

func (r *Resolver) debug(msg string, decl, enclosing Declaration) {
	if r.logger == nil {
		return
	}

	r.logger.Debug(msg,
		slog.String("declaration", decl.Name()),
		slog.String("enclosing", enclosing.Name()),
	)
}

func sameDeclaration(scope *MatchingElement, decl Declaration) bool {
	return scope != nil && scope.Declaration != nil && scope.Declaration.Is(decl)
}
