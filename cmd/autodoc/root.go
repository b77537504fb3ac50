package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/autodoc/pkg/config"
	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/ruleset"
	"github.com/Sumatoshi-tech/autodoc/pkg/version"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// errFindings makes check exit non-zero without printing an error line.
var errFindings = errors.New("documentation is missing or stale")

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	rulesFile  string
	verbose    bool
	quiet      bool
	noColor    bool
}

// session is the state a command works with after configuration is loaded.
type session struct {
	cfg       *config.Config
	rules     *ruleset.RuleSet
	providers observability.Providers
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "autodoc",
		Short: "Generate Javadoc comments from naming templates",
		Long: `autodoc generates Javadoc comments for Java declarations by matching their
names against ordered regular-expression templates and expanding keyword
shortcuts in the split identifier words.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ./.autodoc.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.rulesFile, "rules", "", "rule file overriding rules.path (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(generateCmd(flags))
	rootCmd.AddCommand(checkCmd(flags))
	rootCmd.AddCommand(splitCmd(flags))
	rootCmd.AddCommand(rulesCmd(flags))
	rootCmd.AddCommand(mcpCmd(flags))
	rootCmd.AddCommand(lspCmd(flags))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// open loads configuration and rules and starts observability in mode.
func (f *globalFlags) open(cmd *cobra.Command, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, err
	}

	if f.rulesFile != "" {
		cfg.Rules.Path = f.rulesFile
	}

	obsCfg := cfg.Observability(mode, version.Version)
	obsCfg.Output = cmd.ErrOrStderr()

	if f.verbose {
		obsCfg.LogLevel = slog.LevelDebug
	} else if f.quiet {
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	rules, err := ruleset.Load(cfg.Rules.Path)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, err
	}

	providers.Logger.Debug("configuration loaded",
		"rules", cfg.Rules.Path,
		"templates", rules.Templates.Len(),
		"replacements", len(rules.Replacements),
	)

	return &session{cfg: cfg, rules: rules, providers: providers, logger: providers.Logger}, nil
}

// generator builds a generator from the session with flag overrides applied.
func (s *session) generator(overrides generateOverrides) (*generator.Generator, error) {
	opts, err := s.cfg.GeneratorOptions()
	if err != nil {
		return nil, err
	}

	err = overrides.apply(&opts)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewGenerationMetrics(s.providers.Meter)
	if err != nil {
		return nil, err
	}

	return generator.New(s.rules.Templates, s.rules.Replacer(), opts,
		generator.WithLogger(s.logger),
		generator.WithTracer(s.providers.Tracer),
		generator.WithMetrics(metrics),
	), nil
}

func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.logger.Warn("observability shutdown failed", "error", err)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
