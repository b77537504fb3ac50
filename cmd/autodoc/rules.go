package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/render"
	"github.com/Sumatoshi-tech/autodoc/pkg/ruleset"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

func rulesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect, validate and export rule sets",
	}

	cmd.AddCommand(rulesValidateCmd(flags))
	cmd.AddCommand(rulesExportCmd(flags))

	return cmd
}

func rulesValidateCmd(flags *globalFlags) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a rule file",
		Long: `Validate a rule file against the rule schema, compile every pattern and
parse every template body. With --list the rules are printed as a table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := ruleset.Load(args[0])
			if err != nil {
				return err
			}

			err = errors.Join(rs.Templates.Validate(), checkBodies(rs))
			if err != nil {
				return err
			}

			if flags.quiet {
				return nil
			}

			w := cmd.OutOrStdout()

			if list {
				renderRules(w, rs.Templates)
			}

			color.New(color.FgGreen).Fprintf(w, "%s is valid: %d templates, %d replacements\n",
				args[0], countEntries(rs.Templates), len(rs.Replacements))

			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print the rules as a table")

	return cmd
}

// checkBodies parses every template body and joins the failures.
func checkBodies(rs *ruleset.RuleSet) error {
	eval := render.New(rs.Replacer())

	var errs []error

	_ = rs.Templates.Walk(func(entry *template.Entry, _ int) error { //nolint:errcheck // visitor never fails
		err := eval.Check(entry)
		if err != nil {
			errs = append(errs, err)
		}

		return nil
	})

	return errors.Join(errs...)
}

func countEntries(set *template.Set) int {
	n := 0

	_ = set.Walk(func(*template.Entry, int) error { //nolint:errcheck // visitor never fails
		n++

		return nil
	})

	return n
}

func renderRules(w io.Writer, set *template.Set) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Kind", "Name", "Pattern", "Matches", "Origin"})

	_ = set.Walk(func(entry *template.Entry, depth int) error { //nolint:errcheck // visitor never fails
		matches := "name"
		if entry.UseSignature {
			matches = "signature"
		}

		origin := "custom"
		if entry.Default {
			origin = "default"
		}

		tbl.AppendRow(table.Row{
			entry.Kind.String(),
			strings.Repeat("  ", depth) + entry.Name,
			entry.Pattern,
			matches,
			origin,
		})

		return nil
	})

	tbl.Render()
}

func rulesExportCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the effective rule set",
		Long: `Export the effective rule set: the built-in rules, or the configured rule
file merged as it would be used. A file argument chooses the format by its
extension; otherwise the document is printed in --format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			doc := ruleset.Export(sess.rules)

			if len(args) == 1 {
				err = ruleset.Save(args[0], doc)
				if err != nil {
					return err
				}

				if !flags.quiet {
					color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
				}

				return nil
			}

			if format != formatYAML && format != formatJSON {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
			}

			data, err := ruleset.Encode(doc, format)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "output format: yaml or json")

	return cmd
}
