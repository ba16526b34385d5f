package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/regcheck/internal/config"
	"github.com/zjrosen/regcheck/internal/flags"
	"github.com/zjrosen/regcheck/internal/log"
)

// Exit codes returned by ExitCode.
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitError      = 2
)

// LocalConfigPath is the per-directory config file, checked before the user config.
const LocalConfigPath = ".regcheck/config.yaml"

// ErrViolations is returned by check when the report fails the severity gate.
var ErrViolations = errors.New("registry has violations")

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	cfgErr    error
	logCloser func()
)

var rootCmd = &cobra.Command{
	Use:   "regcheck",
	Short: "Consistency checks for a protocol metadata registry",
	Long: `regcheck validates and cross-references a hand-maintained registry of
protocol metadata: chain names and aliases, ids, names and slugs, parent and
fork references, categories, adapter modules, emissions, dimensions and stats.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .regcheck/config.yaml, then ~/.config/regcheck/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "append logs to this file instead of stderr")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// setDefaults registers every config key with viper so env overrides and
// Unmarshal see them.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("registry.path", d.Registry.Path)
	v.SetDefault("registry.strict", d.Registry.Strict)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.fail_on", d.Output.FailOn)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("adapters.dir", d.Adapters.Dir)
	v.SetDefault("adapters.enabled", d.Adapters.Enabled)
	v.SetDefault("adapters.concurrency", d.Adapters.Concurrency)
	v.SetDefault("adapters.timeout", d.Adapters.Timeout)
	v.SetDefault("adapters.cache_ttl", d.Adapters.CacheTTL)
	v.SetDefault("policy.stats_tolerance", d.Policy.StatsTolerance)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.keep", d.History.Keep)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// loadConfig reads configuration into a Config. Lookup order: the explicit
// file, .regcheck/config.yaml, then ~/.config/regcheck/config.yaml. A missing
// config file is not an error; environment variables use the REGCHECK_ prefix.
func loadConfig(v *viper.Viper, explicit string) (config.Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("REGCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case fileExists(LocalConfigPath):
		v.SetConfigFile(LocalConfigPath)
	default:
		if dir := config.DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func initConfig() {
	cfg, cfgErr = loadConfig(viper.GetViper(), cfgFile)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setup validates the config and starts logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o750); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		closer, err := log.Init(cfg.Log.File)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		log.SetMinLevel(level)
		logCloser = closer
	} else {
		log.InitWriter(cmd.ErrOrStderr(), level)
	}

	log.Debug(log.CatConfig, "Configuration loaded", "file", viper.ConfigFileUsed(), "registry", cfg.Registry.Path)
	return nil
}

func featureFlags() *flags.Registry {
	return flags.New(cfg.Flags)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrViolations):
		return ExitViolations
	default:
		return ExitError
	}
}
