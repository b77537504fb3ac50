package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/autodoc/pkg/render"
)

// FindingKind classifies a documentation problem.
type FindingKind string

// Finding kinds.
const (
	// FindingMissing is a matched declaration without a Javadoc block.
	FindingMissing FindingKind = "missing"
	// FindingStale is a Javadoc block that differs from the generated text.
	FindingStale FindingKind = "stale"
)

// Finding reports one declaration whose documentation is missing or stale.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Name     string      `json:"name"`
	Rule     string      `json:"rule"`
	Expected string      `json:"expected"`
	// Diff is a line diff from the existing text to Expected, stale only.
	Diff string `json:"diff,omitempty"`
	Line int    `json:"line"`
}

// Check compares existing comments in src with the generated ones.
// Unmatched declarations are not reported.
func (g *Generator) Check(ctx context.Context, path string, src []byte) ([]Finding, error) {
	comments, err := g.analyze(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var findings []Finding

	for _, c := range comments {
		if c.Action == ActionUnmatched {
			continue
		}

		finding := Finding{
			Name:     c.Decl.QualifiedName(),
			Rule:     c.Rule,
			Expected: c.Text,
			Line:     c.Decl.Line,
		}

		if !c.Decl.HasJavadoc() {
			finding.Kind = FindingMissing
			findings = append(findings, finding)

			continue
		}

		existing := render.CommentText(c.Decl.Javadoc)
		if existing == c.Text {
			continue
		}

		finding.Kind = FindingStale
		finding.Diff = LineDiff(existing, c.Text)
		findings = append(findings, finding)
	}

	return findings, nil
}

// LineDiff renders a line-oriented diff of from and to. Every line is
// prefixed with "-", "+" or a space.
func LineDiff(from, to string) string {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(withNewline(from), withNewline(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := " "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}
