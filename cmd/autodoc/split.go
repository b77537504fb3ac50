package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/textutil"
)

// splitOutput is the JSON form of the split command.
type splitOutput struct {
	Identifier string   `json:"identifier"`
	Text       string   `json:"text"`
	Words      []string `json:"words"`
}

func splitCmd(flags *globalFlags) *cobra.Command {
	var (
		replace string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "split <identifier>...",
		Short: "Split identifiers into words",
		Long: `Split Java identifiers at case changes, digits and underscores. With
--replace the keyword shortcuts of the active rule set are expanded for a
field, method or both.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
			}

			var rep *replacer.Replacer

			scope := replacer.ScopeField

			if replace != "" {
				parsed, err := replacer.ParseScope(replace)
				if err != nil {
					return err
				}

				scope = parsed

				sess, err := flags.open(cmd, observability.ModeCLI)
				if err != nil {
					return err
				}
				defer sess.close()

				rep = sess.rules.Replacer()
			}

			out := make([]splitOutput, 0, len(args))

			for _, identifier := range args {
				words := textutil.Split(identifier)
				if rep != nil {
					words = rep.Apply(words, scope)
				}

				out = append(out, splitOutput{
					Identifier: identifier,
					Text:       textutil.JoinWords(words),
					Words:      words,
				})
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			for _, o := range out {
				fmt.Fprintln(cmd.OutOrStdout(), o.Text)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&replace, "replace", "", "expand keyword shortcuts for: field, method or both")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")

	return cmd
}
