// Package lsp provides a read-only Language Server Protocol server that
// reports missing or stale Javadoc and previews generated comments on hover.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/autodoc/pkg/cache"
	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/render"
	"github.com/Sumatoshi-tech/autodoc/pkg/safeconv"
	"github.com/Sumatoshi-tech/autodoc/pkg/version"
)

const (
	serverName       = "autodoc"
	diagnosticSource = "autodoc"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"

	// describeCacheSize bounds the source bytes of cached hover analyses.
	describeCacheSize = 8 << 20
)

// described is the analysis of one document version.
type described struct {
	text     string
	comments []generator.Comment
}

// ServerDeps holds injectable dependencies for the language server.
type ServerDeps struct {
	// Generator produces the expected comments. Required.
	Generator *generator.Generator

	// Logger is an optional structured logger. Nil discards records.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder.
	Metrics *observability.REDMetrics
}

// Server implements the autodoc language server.
type Server struct {
	store   *DocumentStore
	cache   *cache.LRU[string, described]
	gen     *generator.Generator
	logger  *slog.Logger
	metrics *observability.REDMetrics
	handler protocol.Handler
}

// NewServer creates a language server with default handlers.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		store:   NewDocumentStore(),
		cache:   cache.NewLRU[string, described](describeCacheSize, func(d described) int64 { return int64(len(d.text)) }),
		gen:     deps.Generator,
		logger:  logger,
		metrics: deps.Metrics,
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv
}

// Run starts the language server on stdio.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil
	}

	for _, change := range params.ContentChanges {
		text = applyChange(text, change)
	}

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)
	srv.cache.Remove(uri)

	notify(ctx, methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects a null hover for unknown documents.
	}

	var hover *protocol.Hover

	err := srv.observe("lsp.hover", func(ctx context.Context) error {
		var hoverErr error

		hover, hoverErr = srv.hoverAt(ctx, params.TextDocument.URI, text, int(params.Position.Line))

		return hoverErr
	})
	if err != nil {
		srv.logger.Warn("hover failed", "uri", params.TextDocument.URI, "error", err)

		return nil, nil //nolint:nilnil // a parse failure is not a protocol error.
	}

	return hover, nil
}

// hoverAt previews the comment generated for the declaration whose header
// (annotations through signature) covers the zero-based line.
func (srv *Server) hoverAt(ctx context.Context, uri, text string, line int) (*protocol.Hover, error) {
	comments, err := srv.describe(ctx, uri, text)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		if line+1 < c.Decl.Line || line+1 > c.Decl.EndLine || c.Action == generator.ActionUnmatched {
			continue
		}

		var sb strings.Builder

		fmt.Fprintf(&sb, "**%s** `%s` (rule `%s`)\n\n", c.Decl.Kind().Title(), c.Decl.QualifiedName(), c.Rule)
		sb.WriteString("```java\n")
		sb.WriteString(render.FormatComment(c.Text, ""))
		sb.WriteString("\n```")

		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: sb.String(),
			},
		}, nil
	}

	return nil, nil //nolint:nilnil // no declaration on this line.
}

// describe returns the generated comments of text, reusing the previous
// analysis of uri while its text is unchanged.
func (srv *Server) describe(ctx context.Context, uri, text string) ([]generator.Comment, error) {
	if cached, ok := srv.cache.Get(uri); ok && cached.text == text {
		return cached.comments, nil
	}

	comments, err := srv.gen.Describe(ctx, []byte(text))
	if err != nil {
		return nil, err
	}

	srv.cache.Put(uri, described{text: text, comments: comments})

	return comments, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	var diagnostics []protocol.Diagnostic

	err := srv.observe("lsp.diagnostics", func(ctx context.Context) error {
		var diagErr error

		diagnostics, diagErr = srv.diagnostics(ctx, uri, text)

		return diagErr
	})
	if err != nil {
		srv.logger.Debug("diagnostics skipped", "uri", uri, "error", err)

		diagnostics = []protocol.Diagnostic{}
	}

	notify(ctx, methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnostics reports one entry per declaration whose Javadoc is missing or
// differs from the generated text.
func (srv *Server) diagnostics(ctx context.Context, uri, text string) ([]protocol.Diagnostic, error) {
	findings, err := srv.gen.Check(ctx, uri, []byte(text))
	if err != nil {
		return nil, err
	}

	lines := strings.Split(text, "\n")
	diagnostics := make([]protocol.Diagnostic, 0, len(findings))
	source := diagnosticSource

	for _, f := range findings {
		severity := protocol.DiagnosticSeverityInformation
		message := "missing Javadoc for " + f.Name

		if f.Kind == generator.FindingStale {
			severity = protocol.DiagnosticSeverityWarning
			message = "stale Javadoc for " + f.Name + "\n" + f.Diff
		}

		line := f.Line - 1
		lineLen := 0

		if line < len(lines) {
			lineLen = utf16Len(lines[line])
		}

		pos := safeconv.Must[protocol.UInteger](line)

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: pos},
				End:   protocol.Position{Line: pos, Character: safeconv.Must[protocol.UInteger](lineLen)},
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: f.Rule},
			Source:   &source,
			Message:  message,
		})
	}

	return diagnostics, nil
}

func (srv *Server) observe(op string, fn func(context.Context) error) error {
	ctx := context.Background()

	return srv.metrics.Observe(ctx, op, func() error {
		return fn(ctx)
	})
}

func notify(ctx *glsp.Context, method string, params any) {
	if ctx == nil || ctx.Notify == nil {
		return
	}

	ctx.Notify(method, params)
}

// applyChange applies one content change event. Events without a range
// replace the whole document.
func applyChange(text string, change any) string {
	switch event := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return event.Text
	case protocol.TextDocumentContentChangeEvent:
		if event.Range == nil {
			return event.Text
		}

		start := offsetOf(text, event.Range.Start)
		end := offsetOf(text, event.Range.End)

		if end < start {
			start, end = end, start
		}

		return text[:start] + event.Text + text[end:]
	case map[string]any:
		if whole, ok := event["text"].(string); ok {
			return whole
		}
	}

	return text
}

// offsetOf converts an LSP position, counted in UTF-16 code units, to a byte
// offset in text. Positions past the end clamp to the line or text end.
func offsetOf(text string, pos protocol.Position) int {
	offset := 0

	for range pos.Line {
		idx := strings.IndexByte(text[offset:], '\n')
		if idx < 0 {
			return len(text)
		}

		offset += idx + 1
	}

	units := int(pos.Character)

	for units > 0 && offset < len(text) && text[offset] != '\n' {
		r, size := utf8.DecodeRuneInString(text[offset:])
		units -= utf16.RuneLen(r)
		offset += size
	}

	return offset
}

func utf16Len(s string) int {
	n := 0

	for _, r := range s {
		n += utf16.RuneLen(r)
	}

	return n
}
