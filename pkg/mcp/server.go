// Package mcp implements a Model Context Protocol server exposing autodoc
// comment generation and identifier splitting as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/ruleset"
	"github.com/Sumatoshi-tech/autodoc/pkg/version"
)

const (
	serverName = "autodoc"

	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Rules is the rule set used for generation. Nil uses the built-in rules.
	Rules *ruleset.RuleSet

	// Options are the default generation options. The zero value uses
	// generator.DefaultOptions.
	Options *generator.Options
}

// Server wraps the MCP SDK server with autodoc tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	tools   *toolset
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	names   []string
	mu      sync.RWMutex
}

// NewServer creates a new MCP server with all autodoc tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	rules := deps.Rules
	if rules == nil {
		rules = ruleset.Default()
	}

	genOpts := generator.DefaultOptions()
	if deps.Options != nil {
		genOpts = *deps.Options
	}

	srv := &Server{
		inner:   inner,
		tools:   &toolset{rules: rules, opts: genOpts},
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		names:   make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	copy(names, s.names)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameGenerate,
		Description: generateToolDescription,
	}, withMetrics(s.metrics, ToolNameGenerate, withTracing(s.tracer, ToolNameGenerate, s.tools.handleGenerate)))
	s.trackTool(ToolNameGenerate)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameCheck,
		Description: checkToolDescription,
	}, withMetrics(s.metrics, ToolNameCheck, withTracing(s.tracer, ToolNameCheck, s.tools.handleCheck)))
	s.trackTool(ToolNameCheck)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSplit,
		Description: splitToolDescription,
	}, withMetrics(s.metrics, ToolNameSplit, withTracing(s.tracer, ToolNameSplit, s.tools.handleSplit)))
	s.trackTool(ToolNameSplit)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		op := mcpSpanPrefix + toolName
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = append(s.names, name)
}

// Tool description constants.
const (
	generateToolDescription = "Generate Javadoc comments for Java source. " +
		"Returns the documented source and the comment chosen for every declaration."

	checkToolDescription = "Report Java declarations whose Javadoc is missing " +
		"or differs from the generated text."

	splitToolDescription = "Split a Java identifier into words and optionally " +
		"expand keyword shortcuts for a field or method name."
)
