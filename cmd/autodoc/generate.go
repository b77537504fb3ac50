package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/javasrc"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

const stdinPath = "-"

// generateOverrides holds generation flags that override the config file.
type generateOverrides struct {
	mode       string
	visibility string
	maxSize    string
	workers    int
	noTags     bool
}

func (o generateOverrides) apply(opts *generator.Options) error {
	if o.mode != "" {
		mode, err := generator.ParseMode(o.mode)
		if err != nil {
			return err
		}

		opts.Mode = mode
	}

	if o.visibility != "" {
		visibility, err := javasrc.ParseVisibility(o.visibility)
		if err != nil {
			return err
		}

		opts.MinVisibility = visibility
	}

	if o.maxSize != "" {
		size, err := humanize.ParseBytes(o.maxSize)
		if err != nil {
			return fmt.Errorf("--max-file-size: %w", err)
		}

		opts.MaxFileSize = size
	}

	if o.workers > 0 {
		opts.Workers = o.workers
	}

	if o.noTags {
		opts.Tags = false
	}

	return nil
}

func addGenerateFlags(cmd *cobra.Command, o *generateOverrides) {
	cmd.Flags().StringVar(&o.mode, "mode", "", "comment mode: complete, replace or keep")
	cmd.Flags().StringVar(&o.visibility, "visibility", "", "lowest documented visibility: private, package, protected or public")
	cmd.Flags().StringVar(&o.maxSize, "max-file-size", "", "skip larger files (e.g. '512KB', '2MiB')")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "number of parallel workers (0 = config or CPU count)")
	cmd.Flags().BoolVar(&o.noTags, "no-tags", false, "omit @param and @throws tags")
}

func generateCmd(flags *globalFlags) *cobra.Command {
	var (
		overrides generateOverrides
		write     bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Generate Javadoc comments for Java files",
		Long: `Generate Javadoc comments for every Java file under the given paths.

Without --write the files are left untouched and a summary is printed. A single
"-" reads Java source from stdin and prints the documented source to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
			}

			sess, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			gen, err := sess.generator(overrides)
			if err != nil {
				return err
			}

			if len(args) == 1 && args[0] == stdinPath {
				return generateStdin(cmd, gen)
			}

			summary, err := gen.Run(cmd.Context(), args, write)
			if err != nil {
				return err
			}

			if flags.quiet {
				return nil
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			renderSummary(cmd.OutOrStdout(), summary, write)

			return nil
		},
	}

	addGenerateFlags(cmd, &overrides)
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite changed files in place")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "summary format: text or json")

	return cmd
}

func generateStdin(cmd *cobra.Command, gen *generator.Generator) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	result, err := gen.Generate(cmd.Context(), "<stdin>", src)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(result.Output)

	return err
}

func renderSummary(w io.Writer, summary *generator.Summary, written bool) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Added", "Replaced", "Kept", "Unmatched", "Changed"})

	changed := 0

	for _, r := range summary.Results {
		mark := ""
		if r.Stale {
			changed++
			mark = "yes"
		}

		tbl.AppendRow(table.Row{
			displayPath(r.Path),
			r.Count(generator.ActionAdd),
			r.Count(generator.ActionReplace),
			r.Count(generator.ActionKeep),
			r.Count(generator.ActionUnmatched),
			mark,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(summary.Results)),
		summary.Total(generator.ActionAdd),
		summary.Total(generator.ActionReplace),
		summary.Total(generator.ActionKeep),
		summary.Total(generator.ActionUnmatched),
		changed,
	})
	tbl.Render()

	for _, skip := range summary.Skipped {
		color.New(color.FgYellow).Fprintf(w, "skipped %s: %s\n", displayPath(skip.Path), skip.Reason)
	}

	switch {
	case changed == 0:
		color.New(color.FgGreen).Fprintln(w, "All comments are up to date.")
	case written:
		color.New(color.FgGreen).Fprintf(w, "Updated %d files.\n", changed)
	default:
		color.New(color.FgCyan).Fprintf(w, "%d files would change; rerun with --write to apply.\n", changed)
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(value)
}

// displayPath shortens path relative to the working directory when possible.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}

	rel, err := filepath.Rel(wd, path)
	if err != nil || filepath.IsAbs(rel) {
		return path
	}

	return rel
}
