package javasrc

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/autodoc/pkg/levenshtein"
	"github.com/Sumatoshi-tech/autodoc/pkg/resolver"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

// Visibility is the access level of a declaration, ordered from most to
// least restrictive.
type Visibility int

// Access levels.
const (
	VisibilityPrivate Visibility = iota
	VisibilityPackage
	VisibilityProtected
	VisibilityPublic
)

var visibilityNames = [...]string{"private", "package", "protected", "public"}

// String returns the lower-case access level name.
func (v Visibility) String() string {
	if v < VisibilityPrivate || v > VisibilityPublic {
		return fmt.Sprintf("visibility(%d)", int(v))
	}

	return visibilityNames[v]
}

// ParseVisibility maps an access level name to its Visibility.
func ParseVisibility(name string) (Visibility, error) {
	needle := strings.ToLower(strings.TrimSpace(name))

	for idx, candidate := range visibilityNames {
		if candidate == needle {
			return Visibility(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %q%s", ErrUnknownVisibility, name, levenshtein.Hint(needle, visibilityNames[:]))
}

// Decl is a documentable Java declaration.
type Decl struct {
	enclosing *Decl
	kind      template.Kind
	name      string
	signature string

	// Javadoc is the existing /** */ block directly above the declaration.
	Javadoc string
	// Indent is the whitespace preceding the declaration on its line.
	Indent string

	// Params and Throws hold the parameter and exception declarations of a
	// method or constructor.
	Params []*Decl
	Throws []*Decl

	// Line is the 1-based line of the declaration start.
	Line int
	// EndLine is the 1-based line its header ends on, before any body.
	EndLine int
	// Offset is the byte offset of the line the declaration starts on.
	Offset int
	// Start is where the declaration text resumes after its comment: Offset,
	// or the node start when the existing Javadoc ends on the same line.
	Start int
	// CommentOffset is the byte offset of the line the existing Javadoc
	// starts on, or -1 without one.
	CommentOffset int

	Visibility Visibility

	container bool
}

var _ resolver.Declaration = (*Decl)(nil)

// Kind implements [resolver.Declaration].
func (d *Decl) Kind() template.Kind { return d.kind }

// Name implements [resolver.Declaration].
func (d *Decl) Name() string { return d.name }

// Signature implements [resolver.Declaration].
func (d *Decl) Signature() string { return d.signature }

// Enclosing implements [resolver.Declaration].
func (d *Decl) Enclosing() resolver.Declaration {
	if d.enclosing == nil {
		return nil
	}

	return d.enclosing
}

// Parent returns the enclosing declaration, or nil at the top level.
func (d *Decl) Parent() *Decl { return d.enclosing }

// Is implements [resolver.Declaration] by pointer identity.
func (d *Decl) Is(other resolver.Declaration) bool {
	o, ok := other.(*Decl)

	return ok && o == d
}

// HasJavadoc reports whether an existing Javadoc block precedes d.
func (d *Decl) HasJavadoc() bool { return d.CommentOffset >= 0 }

// Documentable reports whether d gets its own comment block. Parameters and
// exceptions are documented through tags on their method.
func (d *Decl) Documentable() bool {
	return d.kind == template.KindType || d.kind == template.KindField || d.kind == template.KindMethod
}

// QualifiedName joins the names of enclosing types and d with dots.
func (d *Decl) QualifiedName() string {
	if d.enclosing == nil {
		return d.name
	}

	return d.enclosing.QualifiedName() + "." + d.name
}
