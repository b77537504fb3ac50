// Package observability provides OpenTelemetry tracing, metrics, and
// structured logging for the autodoc CLI and its stdio servers.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies the application execution mode.
type AppMode string

const (
	// ModeCLI is the one-shot command execution mode.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server mode.
	ModeMCP AppMode = "mcp"
	// ModeLSP is the language server mode.
	ModeLSP AppMode = "lsp"
)

const (
	defaultServiceName = "autodoc"

	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// Output receives log records. Nil means os.Stderr.
	Output io.Writer

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	ServiceName    string
	ServiceVersion string

	// Environment is the deployment environment (e.g. "ci", "dev").
	Environment string

	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// SampleRatio is the trace sampling ratio (0.0 to 1.0).
	// Zero samples every root span.
	SampleRatio float64

	ShutdownTimeoutSec int

	LogLevel slog.Level

	OTLPInsecure bool

	// TraceVerbose keeps per-file spans. When false only run-level spans are
	// exported.
	TraceVerbose bool

	LogJSON bool
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
