package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	var (
		overrides generateOverrides
		format    string
	)

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report missing or stale Javadoc comments",
		Long: `Compare the Javadoc of every Java file under the given paths with the
generated comments. Exits non-zero when any comment is missing or stale.`,
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

			files, err := gen.CheckAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			if !flags.quiet {
				if format == formatJSON {
					if files == nil {
						files = []generator.FileFindings{}
					}

					err = writeJSON(cmd.OutOrStdout(), files)
					if err != nil {
						return err
					}
				} else {
					renderFindings(cmd.OutOrStdout(), files)
				}
			}

			if len(files) > 0 {
				return errFindings
			}

			return nil
		},
	}

	addGenerateFlags(cmd, &overrides)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")

	return cmd
}

func renderFindings(w io.Writer, files []generator.FileFindings) {
	if len(files) == 0 {
		color.New(color.FgGreen).Fprintln(w, "All comments are up to date.")

		return
	}

	var missing, stale int

	for _, file := range files {
		for _, f := range file.Findings {
			location := fmt.Sprintf("%s:%d", displayPath(file.Path), f.Line)

			if f.Kind == generator.FindingMissing {
				missing++

				color.New(color.FgYellow).Fprintf(w, "%s: missing Javadoc for %s (%s)\n", location, f.Name, f.Rule)

				continue
			}

			stale++

			color.New(color.FgRed).Fprintf(w, "%s: stale Javadoc for %s (%s)\n", location, f.Name, f.Rule)
			renderDiff(w, f.Diff)
		}
	}

	fmt.Fprintf(w, "\n%d missing, %d stale in %d files\n", missing, stale, len(files))
}

func renderDiff(w io.Writer, diff string) {
	for line := range strings.SplitSeq(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "-"):
			color.New(color.FgRed).Fprintf(w, "    %s\n", line)
		case strings.HasPrefix(line, "+"):
			color.New(color.FgGreen).Fprintf(w, "    %s\n", line)
		default:
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
