// Package javasrc extracts documentable declarations from Java source using
// tree-sitter.
//
// Declarations are returned in document order: every type precedes its
// members, and every method precedes its parameters and exceptions. That is
// the order a resolver expects.
package javasrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/java"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/autodoc/pkg/safeconv"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

// Sentinel errors.
var (
	// ErrParse indicates tree-sitter could not produce a Java syntax tree.
	ErrParse = errors.New("parse java source")
	// ErrUnknownVisibility indicates an unrecognized access level name.
	ErrUnknownVisibility = errors.New("unknown visibility")
)

var javaLanguage = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(java.GetLanguage())
})

// File is a parsed Java compilation unit.
type File struct {
	Source []byte
	// Decls lists every extracted declaration in document order.
	Decls []*Decl
}

// Documentable returns the declarations that get their own comment block.
func (f *File) Documentable() []*Decl {
	out := make([]*Decl, 0, len(f.Decls))

	for _, decl := range f.Decls {
		if decl.Documentable() {
			out = append(out, decl)
		}
	}

	return out
}

// Parser parses Java sources. It is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser.
func NewParser() *Parser {
	lang := javaLanguage()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse extracts the declarations of src.
func (p *Parser) Parse(ctx context.Context, src []byte) (*File, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("%w: parser pool returned unexpected type", ErrParse)
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() || root.Type() != "program" {
		return nil, fmt.Errorf("%w: no program node", ErrParse)
	}

	w := &walker{src: src}
	w.members(root, nil)

	return &File{Source: src, Decls: w.decls}, nil
}

type walker struct {
	src   []byte
	decls []*Decl
}

// members visits the declarations directly inside n, pairing each with the
// Javadoc comment immediately before it.
func (w *walker) members(n sitter.Node, enclosing *Decl) {
	var (
		doc    sitter.Node
		hasDoc bool
	)

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case "block_comment", "comment", "line_comment":
			doc, hasDoc = child, strings.HasPrefix(w.text(child), "/**")

			continue
		case "enum_body_declarations":
			w.members(child, enclosing)

			hasDoc = false

			continue
		}

		if hasDoc {
			w.declaration(child, enclosing, &doc)
		} else {
			w.declaration(child, enclosing, nil)
		}

		hasDoc = false
	}
}

func (w *walker) declaration(n sitter.Node, enclosing *Decl, doc *sitter.Node) {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		w.typeDeclaration(n, enclosing, doc)
	case "field_declaration", "constant_declaration":
		w.fieldDeclaration(n, enclosing, doc)
	case "method_declaration", "constructor_declaration",
		"compact_constructor_declaration", "annotation_type_element_declaration":
		w.methodDeclaration(n, enclosing, doc)
	case "enum_constant":
		decl := w.newDecl(n, template.KindField, w.fieldText(n, "name"), enclosing, doc)
		decl.signature = decl.name
		decl.Visibility = VisibilityPublic
	}
}

func (w *walker) typeDeclaration(n sitter.Node, enclosing *Decl, doc *sitter.Node) {
	decl := w.newDecl(n, template.KindType, w.fieldText(n, "name"), enclosing, doc)
	decl.container = n.Type() == "interface_declaration" || n.Type() == "annotation_type_declaration"

	body := n.ChildByFieldName("body")
	end := n.EndByte()

	if !body.IsNull() {
		end = body.StartByte()
	}

	decl.signature = w.signature(n, end)
	decl.EndLine = w.headerEnd(n.StartByte(), end)

	if n.Type() == "record_declaration" {
		w.recordComponents(n.ChildByFieldName("parameters"), decl)
	}

	if !body.IsNull() {
		w.members(body, decl)
	}
}

func (w *walker) recordComponents(params sitter.Node, record *Decl) {
	if params.IsNull() {
		return
	}

	for idx := range params.NamedChildCount() {
		param := params.NamedChild(idx)
		if param.Type() != "formal_parameter" {
			continue
		}

		decl := w.newDecl(param, template.KindField, w.fieldText(param, "name"), record, nil)
		decl.signature = w.signature(param, param.EndByte())
		decl.Visibility = VisibilityPrivate
	}
}

func (w *walker) fieldDeclaration(n sitter.Node, enclosing *Decl, doc *sitter.Node) {
	prefix := w.signature(n, n.StartByte())
	if typ := n.ChildByFieldName("type"); !typ.IsNull() {
		prefix = w.signature(n, typ.EndByte())
	}

	for idx := range n.NamedChildCount() {
		declarator := n.NamedChild(idx)
		if declarator.Type() != "variable_declarator" {
			continue
		}

		name := declarator.ChildByFieldName("name")
		if name.IsNull() {
			continue
		}

		decl := w.newDecl(n, template.KindField, w.text(name), enclosing, doc)
		decl.signature = strings.TrimSpace(prefix + " " + w.text(name))
		decl.EndLine = w.headerEnd(n.StartByte(), declarator.EndByte())

		// Only the first declarator owns the comment.
		doc = nil
	}
}

func (w *walker) methodDeclaration(n sitter.Node, enclosing *Decl, doc *sitter.Node) {
	decl := w.newDecl(n, template.KindMethod, w.fieldText(n, "name"), enclosing, doc)

	end := n.EndByte()
	if body := n.ChildByFieldName("body"); !body.IsNull() {
		end = body.StartByte()
	}

	decl.signature = strings.TrimSuffix(w.signature(n, end), ";")
	decl.signature = strings.TrimSpace(decl.signature)
	decl.EndLine = w.headerEnd(n.StartByte(), end)

	if params := n.ChildByFieldName("parameters"); !params.IsNull() {
		w.parameters(params, decl)
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == "throws" {
			w.exceptions(child, decl)
		}
	}
}

func (w *walker) parameters(params sitter.Node, method *Decl) {
	for idx := range params.NamedChildCount() {
		param := params.NamedChild(idx)

		var name string

		switch param.Type() {
		case "formal_parameter":
			name = w.fieldText(param, "name")
		case "spread_parameter":
			name = w.spreadName(param)
		default:
			continue
		}

		if name == "" {
			continue
		}

		decl := w.newDecl(param, template.KindParameter, name, method, nil)
		decl.signature = w.signature(param, param.EndByte())
		decl.Visibility = method.Visibility
		method.Params = append(method.Params, decl)
	}
}

func (w *walker) spreadName(param sitter.Node) string {
	for idx := range param.NamedChildCount() {
		child := param.NamedChild(idx)
		if child.Type() == "variable_declarator" {
			return w.fieldText(child, "name")
		}
	}

	return ""
}

func (w *walker) exceptions(throws sitter.Node, method *Decl) {
	for idx := range throws.NamedChildCount() {
		typ := throws.NamedChild(idx)

		name := collapse(w.text(typ))
		if name == "" {
			continue
		}

		decl := w.newDecl(typ, template.KindException, name, method, nil)
		decl.signature = name
		decl.Visibility = method.Visibility
		method.Throws = append(method.Throws, decl)
	}
}

func (w *walker) newDecl(n sitter.Node, kind template.Kind, name string, enclosing *Decl, doc *sitter.Node) *Decl {
	start := safeconv.Must[int](n.StartByte())
	lineStart := bytes.LastIndexByte(w.src[:start], '\n') + 1

	decl := &Decl{
		enclosing:     enclosing,
		kind:          kind,
		name:          name,
		Line:          w.lineOf(start),
		EndLine:       w.lineOf(start),
		Offset:        lineStart,
		Start:         lineStart,
		Indent:        leadingSpace(w.src[lineStart:start]),
		CommentOffset: -1,
		Visibility:    w.visibility(n, enclosing),
	}

	if doc != nil {
		docStart := safeconv.Must[int](doc.StartByte())
		decl.Javadoc = w.text(*doc)
		decl.CommentOffset = bytes.LastIndexByte(w.src[:docStart], '\n') + 1

		if leadingSpace(w.src[decl.CommentOffset:docStart]) == "" && decl.CommentOffset != docStart {
			decl.CommentOffset = docStart
		}

		// The comment ends on the declaration's line: the declaration text
		// resumes at the node itself, indented like the comment.
		if docEnd := safeconv.Must[int](doc.EndByte()); docEnd > lineStart {
			decl.Start = start
			decl.Indent = leadingSpace(w.src[decl.CommentOffset:docStart])
		}
	}

	w.decls = append(w.decls, decl)

	return decl
}

// lineOf returns the 1-based line of byte offset off.
func (w *walker) lineOf(off int) int {
	return bytes.Count(w.src[:off], []byte{'\n'}) + 1
}

// headerEnd returns the line of the last byte before end, which is exclusive.
func (w *walker) headerEnd(begin, end uint) int {
	if end > begin {
		end--
	}

	return w.lineOf(safeconv.Must[int](end))
}

// visibility reads the access modifier of n. Members of interfaces and
// annotation types without one are public.
func (w *walker) visibility(n sitter.Node, enclosing *Decl) Visibility {
	if mods, ok := modifiers(n); ok {
		for idx := range mods.ChildCount() {
			switch mods.Child(idx).Type() {
			case "public":
				return VisibilityPublic
			case "protected":
				return VisibilityProtected
			case "private":
				return VisibilityPrivate
			}
		}
	}

	if enclosing != nil && enclosing.container {
		return VisibilityPublic
	}

	return VisibilityPackage
}

// signature returns the source of n up to end with annotations removed and
// whitespace collapsed.
func (w *walker) signature(n sitter.Node, end uint) string {
	cursor := n.StartByte()

	var sb strings.Builder

	if mods, ok := modifiers(n); ok {
		for idx := range mods.NamedChildCount() {
			child := mods.NamedChild(idx)
			if child.Type() != "annotation" && child.Type() != "marker_annotation" {
				continue
			}

			if child.StartByte() >= cursor && child.EndByte() <= end {
				sb.Write(w.src[cursor:child.StartByte()])
				cursor = child.EndByte()
			}
		}
	}

	if cursor < end {
		sb.Write(w.src[cursor:end])
	}

	return collapse(sb.String())
}

func (w *walker) fieldText(n sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child.IsNull() {
		return ""
	}

	return w.text(child)
}

func (w *walker) text(n sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if safeconv.Must[int](end) > len(w.src) || start > end {
		return ""
	}

	return string(w.src[start:end])
}

func modifiers(n sitter.Node) (sitter.Node, bool) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == "modifiers" {
			return child, true
		}
	}

	return n, false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func leadingSpace(prefix []byte) string {
	for _, b := range prefix {
		if b != ' ' && b != '\t' {
			return ""
		}
	}

	return string(prefix)
}
