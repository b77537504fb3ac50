// Package generator assembles Javadoc comments for Java sources.
//
// Each file is parsed, every declaration is resolved in document order by a
// fresh resolver, and matched declarations are rendered into comment blocks
// with @param and @throws tags for methods. Generated blocks are then
// spliced into the source according to the configured [Mode].
package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/autodoc/pkg/javasrc"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/render"
	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/resolver"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

// DefaultMaxFileSize is the default size limit for processed files.
const DefaultMaxFileSize = 1 << 20

// Options tune generation.
type Options struct {
	// MaxFileSize skips larger files. Zero disables the limit.
	MaxFileSize uint64
	// Workers bounds concurrent file processing in Run.
	Workers int
	// MinVisibility skips declarations less visible than this level.
	MinVisibility javasrc.Visibility
	Mode          Mode
	// Tags appends @param and @throws tags to method comments.
	Tags bool
}

// DefaultOptions documents every declaration that lacks a comment.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:   DefaultMaxFileSize,
		Workers:       runtime.NumCPU(),
		MinVisibility: javasrc.VisibilityPrivate,
		Mode:          ModeComplete,
		Tags:          true,
	}
}

// Comment is the generated documentation of one declaration.
type Comment struct {
	Decl *javasrc.Decl `json:"-"`
	// Rule names the matching template, empty when unmatched.
	Rule   string `json:"rule,omitempty"`
	Text   string `json:"text,omitempty"`
	Action Action `json:"action"`
}

// Result is the outcome of generating one file.
type Result struct {
	Path     string    `json:"path"`
	Comments []Comment `json:"comments"`
	// Output is the source with generated comments applied.
	Output []byte `json:"-"`
	// Stale is set when Output differs from the input.
	Stale bool `json:"changed"`
}

// Count returns the number of comments with action a.
func (r *Result) Count(a Action) int {
	n := 0

	for _, c := range r.Comments {
		if c.Action == a {
			n++
		}
	}

	return n
}

// Stats converts the result to metric statistics.
func (r *Result) Stats(duration time.Duration) observability.FileStats {
	return observability.FileStats{
		Added:     r.Count(ActionAdd),
		Replaced:  r.Count(ActionReplace),
		Kept:      r.Count(ActionKeep),
		Unmatched: r.Count(ActionUnmatched),
		Duration:  duration,
	}
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards records.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTracer sets the tracer used for per-file spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generator) {
		g.tracer = tracer
	}
}

// WithMetrics sets the generation metrics.
func WithMetrics(metrics *observability.GenerationMetrics) Option {
	return func(g *Generator) {
		g.metrics = metrics
	}
}

// Generator produces comments from a rule set. It is safe for concurrent use;
// every file gets its own resolver.
type Generator struct {
	rules   *template.Set
	eval    *render.Evaluator
	parser  *javasrc.Parser
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.GenerationMetrics
	opts    Options
}

// New creates a Generator over rules with keyword replacements rep.
func New(rules *template.Set, rep *replacer.Replacer, opts Options, options ...Option) *Generator {
	g := &Generator{
		rules:  rules,
		eval:   render.New(rep),
		parser: javasrc.NewParser(),
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer("autodoc"),
		opts:   opts,
	}

	for _, opt := range options {
		opt(g)
	}

	return g
}

// Options returns the generation options.
func (g *Generator) Options() Options { return g.opts }

// Generate documents the declarations of src and returns the edited source.
func (g *Generator) Generate(ctx context.Context, path string, src []byte) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, observability.SpanFile,
		trace.WithAttributes(attribute.String("autodoc.file", path)))
	defer span.End()

	start := time.Now()

	comments, err := g.analyze(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")

		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for idx := range comments {
		comments[idx].Action = g.action(comments[idx])
	}

	output := apply(src, comments)
	result := &Result{
		Path:     path,
		Comments: comments,
		Output:   output,
		Stale:    !bytes.Equal(output, src),
	}

	duration := time.Since(start)
	g.metrics.RecordFile(ctx, result.Stats(duration))

	span.SetAttributes(
		attribute.Int("autodoc.added", result.Count(ActionAdd)),
		attribute.Int("autodoc.unmatched", result.Count(ActionUnmatched)),
	)

	g.logger.DebugContext(ctx, "file generated",
		slog.String("path", path),
		slog.Int("added", result.Count(ActionAdd)),
		slog.Int("replaced", result.Count(ActionReplace)),
		slog.Int("unmatched", result.Count(ActionUnmatched)),
		slog.Duration("duration", duration),
	)

	return result, nil
}

// Describe parses src and returns the generated comment for every visible
// documentable declaration without choosing an action.
func (g *Generator) Describe(ctx context.Context, src []byte) ([]Comment, error) {
	return g.analyze(ctx, src)
}

// analyze resolves every declaration and renders the visible documentable
// ones. Unmatched declarations come back with ActionUnmatched.
func (g *Generator) analyze(ctx context.Context, src []byte) ([]Comment, error) {
	file, err := g.parser.Parse(ctx, src)
	if err != nil {
		return nil, err
	}

	res := resolver.New(g.rules, resolver.WithLogger(g.logger))
	elements := make(map[*javasrc.Decl]*resolver.MatchingElement, len(file.Decls))

	for _, decl := range file.Decls {
		el, resolveErr := res.Resolve(decl)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve %s: %w", decl.QualifiedName(), resolveErr)
		}

		if el != nil {
			elements[decl] = el
		}
	}

	comments := make([]Comment, 0, len(file.Decls))
	lines := make(map[int]bool)

	for _, decl := range file.Documentable() {
		// One block per source line: later declarators, enum constants and
		// record components on the same line share the first one's comment.
		if decl.Visibility < g.opts.MinVisibility || lines[decl.Offset] {
			continue
		}

		lines[decl.Offset] = true

		el := elements[decl]
		if el == nil {
			comments = append(comments, Comment{Decl: decl, Action: ActionUnmatched})

			continue
		}

		text, describeErr := g.describe(decl, el, elements)
		if describeErr != nil {
			return nil, describeErr
		}

		comments = append(comments, Comment{Decl: decl, Rule: el.Rule.Name, Text: text})
	}

	return comments, nil
}

func (g *Generator) describe(
	decl *javasrc.Decl, el *resolver.MatchingElement, elements map[*javasrc.Decl]*resolver.MatchingElement,
) (string, error) {
	body, err := g.eval.Render(el)
	if err != nil {
		return "", err
	}

	if decl.Kind() != template.KindMethod || !g.opts.Tags {
		return body, nil
	}

	tags := make([]string, 0, len(decl.Params)+len(decl.Throws))

	for _, group := range []struct {
		tag   string
		decls []*javasrc.Decl
	}{{"@param", decl.Params}, {"@throws", decl.Throws}} {
		for _, member := range group.decls {
			text, renderErr := g.eval.Render(elements[member])
			if renderErr != nil {
				return "", renderErr
			}

			tags = append(tags, strings.TrimSpace(group.tag+" "+member.Name()+" "+text))
		}
	}

	switch {
	case len(tags) == 0:
		return body, nil
	case body == "":
		return strings.Join(tags, "\n"), nil
	default:
		return body + "\n\n" + strings.Join(tags, "\n"), nil
	}
}

func (g *Generator) action(c Comment) Action {
	if c.Action == ActionUnmatched {
		return ActionUnmatched
	}

	switch g.opts.Mode {
	case ModeComplete:
		if !c.Decl.HasJavadoc() {
			return ActionAdd
		}
	case ModeReplace:
		if !c.Decl.HasJavadoc() {
			return ActionAdd
		}

		if render.CommentText(c.Decl.Javadoc) != c.Text {
			return ActionReplace
		}
	case ModeKeep:
	}

	return ActionKeep
}

// apply splices added and replaced comments into src. Comments are in
// document order, so offsets only grow.
func apply(src []byte, comments []Comment) []byte {
	var out bytes.Buffer

	out.Grow(len(src))

	cursor := 0

	for _, c := range comments {
		from := c.Decl.Offset

		switch c.Action {
		case ActionAdd:
		case ActionReplace:
			from = c.Decl.CommentOffset
		case ActionKeep, ActionUnmatched:
			continue
		}

		if from < cursor {
			continue
		}

		out.Write(src[cursor:from])
		out.WriteString(render.FormatComment(c.Text, c.Decl.Indent))
		out.WriteByte('\n')

		if c.Decl.Start > c.Decl.Offset {
			out.WriteString(c.Decl.Indent)
		}

		cursor = c.Decl.Start
	}

	out.Write(src[cursor:])

	return out.Bytes()
}
