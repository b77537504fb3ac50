package render

import (
	"github.com/Sumatoshi-tech/autodoc/pkg/resolver"
	"github.com/Sumatoshi-tech/autodoc/pkg/textutil"
)

// View is the data a template body sees.
type View struct {
	el *resolver.MatchingElement
}

// NewView wraps el for template execution.
func NewView(el *resolver.MatchingElement) *View {
	return &View{el: el}
}

// Name is the declaration's simple name, or "" for a synthetic element
// without a declaration.
func (v *View) Name() string {
	if v.el.Declaration == nil {
		return ""
	}

	return v.el.Declaration.Name()
}

// Signature is the normalized declaration text.
func (v *View) Signature() string {
	if v.el.Declaration == nil {
		return ""
	}

	return v.el.Declaration.Signature()
}

// Kind is the declaration kind name, for example "method". Without a
// declaration it is the kind of the matching rule.
func (v *View) Kind() string {
	if v.el.Declaration == nil {
		return v.el.Rule.Kind.String()
	}

	return v.el.Declaration.Kind().String()
}

// Rule is the name of the matching rule.
func (v *View) Rule() string { return v.el.Rule.Name }

// Group returns capture group idx; group 0 is the whole match.
func (v *View) Group(idx int) string { return v.el.Group(idx) }

// Groups returns all capture groups including the whole match.
func (v *View) Groups() []string { return v.el.Captures }

// Words splits the declaration name.
func (v *View) Words() []string { return textutil.Split(v.Name()) }

// Parent is the view of the enclosing match, or nil at the root.
func (v *View) Parent() *View {
	if v.el.Parent == nil {
		return nil
	}

	return NewView(v.el.Parent)
}
