package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/lsp"
	"github.com/Sumatoshi-tech/autodoc/pkg/mcp"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

func mcpCmd(flags *globalFlags) *cobra.Command {
	var overrides generateOverrides

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes autodoc as tools that AI agents can discover and invoke:
  - autodoc_generate: document inline Java source
  - autodoc_check: report missing or stale Javadoc
  - autodoc_split: split an identifier and expand keyword shortcuts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := flags.open(cmd, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer sess.close()

			opts, err := sess.cfg.GeneratorOptions()
			if err != nil {
				return err
			}

			err = overrides.apply(&opts)
			if err != nil {
				return err
			}

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  sess.logger,
				Metrics: red,
				Tracer:  sess.providers.Tracer,
				Rules:   sess.rules,
				Options: &opts,
			})

			return srv.Run(cmd.Context())
		},
	}

	addGenerateFlags(cmd, &overrides)

	return cmd
}

func lspCmd(flags *globalFlags) *cobra.Command {
	var overrides generateOverrides

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for Java (LSP)",
		Long: `Start a read-only language server on stdio. It publishes diagnostics for
missing or stale Javadoc and previews the generated comment on hover.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := flags.open(cmd, observability.ModeLSP)
			if err != nil {
				return err
			}
			defer sess.close()

			gen, err := sess.generator(overrides)
			if err != nil {
				return err
			}

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			return lsp.NewServer(lsp.ServerDeps{
				Generator: gen,
				Logger:    sess.logger,
				Metrics:   red,
			}).Run()
		},
	}

	addGenerateFlags(cmd, &overrides)

	return cmd
}
