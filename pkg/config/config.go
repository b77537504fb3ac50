// Package config loads autodoc configuration from a YAML file, AUTODOC_*
// environment variables, and built-in defaults, in decreasing precedence
// from environment to defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/javasrc"
	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("workers must not be negative")
	ErrInvalidMode        = errors.New("invalid comment mode")
	ErrInvalidVisibility  = errors.New("invalid visibility")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

const (
	envPrefix  = "AUTODOC"
	configName = ".autodoc"

	logFormatText = "text"
	logFormatJSON = "json"
)

// Config holds all autodoc configuration.
type Config struct {
	Rules     RulesConfig     `mapstructure:"rules"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Generate  GenerateConfig  `mapstructure:"generate"`
}

// RulesConfig locates the rule document. An empty path uses the built-in rules.
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// GenerateConfig tunes comment generation.
type GenerateConfig struct {
	Visibility  string `mapstructure:"visibility"`
	Mode        string `mapstructure:"mode"`
	MaxFileSize string `mapstructure:"max_file_size"`
	Workers     int    `mapstructure:"workers"`
	Tags        bool   `mapstructure:"tags"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OTLP export configuration.
type TelemetryConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Headers     string  `mapstructure:"headers"`
	Environment string  `mapstructure:"environment"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"`
	Verbose     bool    `mapstructure:"verbose"`
}

// LoadConfig loads configuration. With an empty configPath, .autodoc.yaml is
// looked up in the working directory and the user config directory; a
// missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/autodoc")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("rules.path", "")

	viperCfg.SetDefault("generate.visibility", DefaultVisibility)
	viperCfg.SetDefault("generate.mode", DefaultMode)
	viperCfg.SetDefault("generate.tags", DefaultTags)
	viperCfg.SetDefault("generate.workers", DefaultWorkers)
	viperCfg.SetDefault("generate.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.endpoint", "")
	viperCfg.SetDefault("telemetry.headers", "")
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.insecure", false)
	viperCfg.SetDefault("telemetry.verbose", false)
}

// Validate checks every field that has a restricted domain.
func (c *Config) Validate() error {
	if c.Generate.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Generate.Workers)
	}

	_, err := generator.ParseMode(c.Generate.Mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMode, err)
	}

	_, err = javasrc.ParseVisibility(c.Generate.Visibility)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVisibility, err)
	}

	_, err = c.maxFileSize()
	if err != nil {
		return err
	}

	format := strings.ToLower(c.Logging.Format)
	if format != logFormatText && format != logFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err = c.logLevel()
	if err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// GeneratorOptions converts the generate section. Zero workers means one
// per CPU.
func (c *Config) GeneratorOptions() (generator.Options, error) {
	mode, err := generator.ParseMode(c.Generate.Mode)
	if err != nil {
		return generator.Options{}, fmt.Errorf("%w: %w", ErrInvalidMode, err)
	}

	visibility, err := javasrc.ParseVisibility(c.Generate.Visibility)
	if err != nil {
		return generator.Options{}, fmt.Errorf("%w: %w", ErrInvalidVisibility, err)
	}

	maxSize, err := c.maxFileSize()
	if err != nil {
		return generator.Options{}, err
	}

	workers := c.Generate.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	return generator.Options{
		MaxFileSize:   maxSize,
		Workers:       workers,
		MinVisibility: visibility,
		Mode:          mode,
		Tags:          c.Generate.Tags,
	}, nil
}

// Observability converts the logging and telemetry sections.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.Mode = mode
	obs.ServiceVersion = version
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.Endpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.Headers)
	obs.OTLPInsecure = c.Telemetry.Insecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.TraceVerbose = c.Telemetry.Verbose
	obs.LogJSON = strings.EqualFold(c.Logging.Format, logFormatJSON)

	if level, err := c.logLevel(); err == nil {
		obs.LogLevel = level
	}

	return obs
}

func (c *Config) maxFileSize() (uint64, error) {
	if strings.TrimSpace(c.Generate.MaxFileSize) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Generate.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, c.Generate.MaxFileSize, err)
	}

	return size, nil
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return level, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}
