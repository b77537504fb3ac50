// Package render evaluates template bodies against resolved declarations.
//
// Bodies are text/template sources executed with a [View] of the matching
// element. Identifier helpers (split, replace, join and the case functions)
// are available as template functions; replace picks the field or method
// keyword map from the kind of the rule being rendered.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/resolver"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
	"github.com/Sumatoshi-tech/autodoc/pkg/textutil"
)

// ErrRender is returned when a template body fails to parse or execute.
var ErrRender = errors.New("render template")

// ScopeFor returns the keyword scope used for declarations of kind.
func ScopeFor(kind template.Kind) replacer.Scope {
	switch kind {
	case template.KindMethod, template.KindException:
		return replacer.ScopeMethod
	case template.KindType, template.KindField, template.KindParameter:
		return replacer.ScopeField
	}

	return replacer.ScopeField
}

// Evaluator renders matching elements. Parsed bodies are memoized per rule;
// an Evaluator is safe for concurrent use.
type Evaluator struct {
	replacer *replacer.Replacer

	mu     sync.Mutex
	parsed map[*template.Entry]*texttemplate.Template
}

// New creates an Evaluator. A nil replacer substitutes nothing.
func New(rep *replacer.Replacer) *Evaluator {
	if rep == nil {
		rep = replacer.New(nil)
	}

	return &Evaluator{
		replacer: rep,
		parsed:   make(map[*template.Entry]*texttemplate.Template),
	}
}

// Render executes the body of el's rule and returns the trimmed text.
func (e *Evaluator) Render(el *resolver.MatchingElement) (string, error) {
	if el == nil || el.Rule == nil {
		return "", nil
	}

	tmpl, err := e.template(el.Rule)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	err = tmpl.Execute(&buf, NewView(el))
	if err != nil {
		return "", fmt.Errorf("%w: executing rule %q: %w", ErrRender, el.Rule.Name, err)
	}

	return normalize(buf.String()), nil
}

// Check parses the body of entry without executing it.
func (e *Evaluator) Check(entry *template.Entry) error {
	_, err := e.template(entry)

	return err
}

func (e *Evaluator) template(entry *template.Entry) (*texttemplate.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.parsed[entry]; ok {
		return tmpl, nil
	}

	tmpl, err := texttemplate.New(entry.Name).
		Option("missingkey=error").
		Funcs(e.funcs(ScopeFor(entry.Kind))).
		Parse(entry.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing rule %q (%s): %w", ErrRender, entry.Name, entry.Description(), err)
	}

	e.parsed[entry] = tmpl

	return tmpl, nil
}

func (e *Evaluator) funcs(scope replacer.Scope) texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"split": textutil.Split,
		"replace": func(words []string) []string {
			return e.replacer.Apply(words, scope)
		},
		"replaceAs": func(name string, words []string) ([]string, error) {
			parsed, err := replacer.ParseScope(name)
			if err != nil {
				return nil, err
			}

			return e.replacer.Apply(words, parsed), nil
		},
		"join":         textutil.JoinWords,
		"lowerWords":   textutil.LowerWords,
		"firstToUpper": textutil.FirstToUpper,
		"firstToLower": textutil.FirstToLower,
		"lower":        strings.ToLower,
		"upper":        strings.ToUpper,
	}
}

// normalize trims the rendered text and drops trailing spaces on each line.
func normalize(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	for idx, line := range lines {
		lines[idx] = strings.TrimRight(line, " \t\r")
	}

	return strings.Join(lines, "\n")
}
