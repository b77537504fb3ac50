// Package ruleset loads, validates, merges, and exports rule documents: the
// templates and keyword replacements that drive comment generation.
//
// A document is YAML or JSON, chosen by file extension, and is checked
// against an embedded JSON Schema before decoding. The built-in defaults are
// embedded as YAML; a document with extends_defaults overrides default
// templates by name and replacements by shortcut and scope.
package ruleset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/autodoc/pkg/persist"
	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

// CurrentVersion is the only document version understood.
const CurrentVersion = 1

// Sentinel errors.
var (
	// ErrSchema indicates a document that does not satisfy the rule schema.
	ErrSchema = errors.New("rule document does not match schema")
	// ErrUnsupportedVersion indicates a document version other than CurrentVersion.
	ErrUnsupportedVersion = errors.New("unsupported rule document version")
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.json
var schemaJSON []byte

// Document is the serialized form of a rule set.
type Document struct {
	Templates       Templates     `json:"templates,omitempty"       yaml:"templates,omitempty"`
	Replacements    []Replacement `json:"replacements,omitempty"    yaml:"replacements,omitempty"`
	Version         int           `json:"version"                   yaml:"version"`
	ExtendsDefaults bool          `json:"extends_defaults,omitempty" yaml:"extends_defaults,omitempty"`
}

// Templates maps a declaration kind name to its ordered rules.
type Templates map[string][]Rule

// Rule is one serialized template entry.
type Rule struct {
	Children     Templates `json:"children,omitempty"      yaml:"children,omitempty"`
	Name         string    `json:"name"                    yaml:"name"`
	Pattern      string    `json:"pattern"                 yaml:"pattern"`
	Body         string    `json:"body,omitempty"          yaml:"body,omitempty"`
	UseSignature bool      `json:"use_signature,omitempty" yaml:"use_signature,omitempty"`
}

// Replacement is one serialized keyword rule.
type Replacement struct {
	Shortcut    string         `json:"shortcut"    yaml:"shortcut"`
	Replacement string         `json:"replacement" yaml:"replacement"`
	Scope       replacer.Scope `json:"scope"       yaml:"scope"`
	Mode        replacer.Mode  `json:"mode"        yaml:"mode"`
}

// RuleSet is a compiled document.
type RuleSet struct {
	Templates    *template.Set
	Replacements []replacer.Rule
}

// Replacer builds the keyword replacer of rs.
func (rs *RuleSet) Replacer() *replacer.Replacer {
	return replacer.New(rs.Replacements)
}

// Default returns the built-in rule set.
func Default() *RuleSet {
	doc, err := Parse(defaultsYAML, persist.NewYAMLCodec())
	if err != nil {
		panic(fmt.Sprintf("ruleset: embedded defaults are invalid: %v", err))
	}

	rs, err := Compile(doc)
	if err != nil {
		panic(fmt.Sprintf("ruleset: embedded defaults are invalid: %v", err))
	}

	for _, kind := range template.Kinds() {
		for _, entry := range rs.Templates.Entries(kind) {
			markDefault(entry)
		}
	}

	return rs
}

func markDefault(entry *template.Entry) {
	entry.Default = true

	if !entry.HasChildren() {
		return
	}

	for _, kind := range template.Kinds() {
		for _, child := range entry.Children().Entries(kind) {
			markDefault(child)
		}
	}
}

// Load reads the document at path. An empty path yields the defaults; a
// document with extends_defaults is merged over them.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}

	codec, err := persist.CodecFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	doc, err := Parse(data, codec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rs, err := Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if !doc.ExtendsDefaults {
		return rs, nil
	}

	return Merge(Default(), rs), nil
}

// Parse validates data against the rule schema and decodes it.
func Parse(data []byte, codec persist.Codec) (*Document, error) {
	var generic any

	err := persist.DecodeBytes(codec, data, &generic)
	if err != nil {
		return nil, err
	}

	err = Validate(generic)
	if err != nil {
		return nil, err
	}

	var doc Document

	err = persist.DecodeBytes(codec, data, &doc)
	if err != nil {
		return nil, err
	}

	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	return &doc, nil
}

// Validate checks an untyped document against the embedded schema.
func Validate(document any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

// Compile turns doc into template and replacement rules. Patterns stay
// uncompiled until first use; call [template.Set.Validate] for an eager check.
func Compile(doc *Document) (*RuleSet, error) {
	set := template.NewSet()

	err := addTemplates(doc.Templates, func(kind template.Kind, entry *template.Entry) error {
		return set.Add(kind, entry)
	})
	if err != nil {
		return nil, err
	}

	rules := make([]replacer.Rule, 0, len(doc.Replacements))
	for _, r := range doc.Replacements {
		rules = append(rules, replacer.Rule{
			Shortcut:    r.Shortcut,
			Replacement: r.Replacement,
			Scope:       r.Scope,
			Mode:        r.Mode,
		})
	}

	return &RuleSet{Templates: set, Replacements: rules}, nil
}

// addTemplates adds rules in kind order so compiled sets are deterministic.
func addTemplates(templates Templates, add func(template.Kind, *template.Entry) error) error {
	for _, kind := range template.Kinds() {
		for _, rule := range templates[kind.String()] {
			entry := template.NewEntry(kind, rule.Name, rule.Pattern, rule.Body, rule.UseSignature)

			err := addTemplates(rule.Children, func(childKind template.Kind, child *template.Entry) error {
				return entry.AddChild(childKind, child)
			})
			if err != nil {
				return err
			}

			err = add(kind, entry)
			if err != nil {
				return err
			}
		}
	}

	for name := range templates {
		if _, err := template.ParseKind(name); err != nil {
			return err
		}
	}

	return nil
}

// Merge lays overlay over base: top-level templates with the same kind and
// name replace the base entry in place, new ones are appended. Replacements
// are overridden by shortcut and scope. base is modified and returned.
func Merge(base, overlay *RuleSet) *RuleSet {
	for _, kind := range template.Kinds() {
		for _, entry := range overlay.Templates.Entries(kind) {
			// Kinds come from a compiled set, so Put cannot fail.
			_ = base.Templates.Put(kind, entry)
		}
	}

	index := make(map[string]int, len(base.Replacements))
	for idx, rule := range base.Replacements {
		index[rule.Key()] = idx
	}

	for _, rule := range overlay.Replacements {
		if idx, ok := index[rule.Key()]; ok {
			base.Replacements[idx] = rule

			continue
		}

		index[rule.Key()] = len(base.Replacements)
		base.Replacements = append(base.Replacements, rule)
	}

	return base
}

// Export converts rs back to a document.
func Export(rs *RuleSet) *Document {
	doc := &Document{
		Version:   CurrentVersion,
		Templates: exportTemplates(rs.Templates),
	}

	for _, rule := range rs.Replacements {
		doc.Replacements = append(doc.Replacements, Replacement{
			Shortcut:    rule.Shortcut,
			Replacement: rule.Replacement,
			Scope:       rule.Scope,
			Mode:        rule.Mode,
		})
	}

	return doc
}

func exportTemplates(set *template.Set) Templates {
	out := make(Templates)

	for _, kind := range template.Kinds() {
		for _, entry := range set.Entries(kind) {
			rule := Rule{
				Name:         entry.Name,
				Pattern:      entry.Pattern,
				Body:         entry.Body,
				UseSignature: entry.UseSignature,
			}

			if entry.HasChildren() {
				rule.Children = exportTemplates(entry.Children())
			}

			out[kind.String()] = append(out[kind.String()], rule)
		}
	}

	return out
}

// Save writes doc to path in the format chosen by its extension.
func Save(path string, doc *Document) error {
	return persist.SaveFile(path, doc)
}

// Encode writes doc as YAML or JSON.
func Encode(doc *Document, format string) ([]byte, error) {
	var codec persist.Codec = persist.NewYAMLCodec()
	if format == "json" {
		codec = persist.NewJSONCodec()
	}

	var buf bytes.Buffer

	err := codec.Encode(&buf, doc)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
