// Package config provides configuration types and defaults for regcheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/regcheck/internal/application/consistency"
	"github.com/zjrosen/regcheck/internal/log"
)

// Config holds all configuration options for regcheck.
type Config struct {
	Registry RegistryConfig  `mapstructure:"registry"`
	Output   OutputConfig    `mapstructure:"output"`
	Adapters AdaptersConfig  `mapstructure:"adapters"`
	Policy   PolicyConfig    `mapstructure:"policy"`
	History  HistoryConfig   `mapstructure:"history"`
	Tracing  TracingConfig   `mapstructure:"tracing"`
	Watch    WatchConfig     `mapstructure:"watch"`
	Log      LogConfig       `mapstructure:"log"`
	Flags    map[string]bool `mapstructure:"flags"`
}

// RegistryConfig locates the registry directory.
type RegistryConfig struct {
	// Path is the registry directory holding chains.yaml, protocols.yaml, ...
	// Default: current directory
	Path string `mapstructure:"path"`

	// Strict fails index construction on the first duplicate key instead of
	// reporting every duplicate as a violation.
	Strict bool `mapstructure:"strict"`
}

// OutputConfig controls report rendering and CI gating.
type OutputConfig struct {
	Format string `mapstructure:"format"`  // "text" (default) or "json"
	FailOn string `mapstructure:"fail_on"` // "hard" (default) or "soft"
	Color  bool   `mapstructure:"color"`   // styled text output
}

// AdaptersConfig controls adapter manifest resolution.
type AdaptersConfig struct {
	// Dir is the root holding adapters/<module>.yaml manifests.
	// Default: the registry directory
	Dir string `mapstructure:"dir"`

	// Enabled turns on the adapter checks. Without manifests they are skipped.
	Enabled bool `mapstructure:"enabled"`

	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`   // per module
	CacheTTL    time.Duration `mapstructure:"cache_ttl"` // 0 disables the cache
}

// PolicyConfig overrides parts of the default check policy. Empty lists keep
// the defaults.
type PolicyConfig struct {
	Categories          []string `mapstructure:"categories"`
	ExtraCategories     []string `mapstructure:"extra_categories"`
	ModuleSentinels     []string `mapstructure:"module_sentinels"`
	CoverageSkipModules []string `mapstructure:"coverage_skip_modules"`
	GovernanceExempt    []string `mapstructure:"governance_exempt"`
	EmissionsExcluded   []string `mapstructure:"emissions_excluded"`
	StatsTolerance      float64  `mapstructure:"stats_tolerance"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	// Enabled records every check run.
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite database file.
	// Default: ~/.config/regcheck/history.db
	Path string `mapstructure:"path"`

	// Keep is the number of runs kept per registry; 0 keeps everything.
	Keep int `mapstructure:"keep"`
}

// TracingConfig holds tracing configuration for check runs.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/regcheck/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// WatchConfig controls check --watch.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info (default), warn, error
	File  string `mapstructure:"file"`  // empty logs to stderr
}

// Apply returns base with the configured overrides applied.
func (p PolicyConfig) Apply(base consistency.Policy) consistency.Policy {
	categories := base.Categories
	if len(p.Categories) > 0 {
		categories = p.Categories
	}
	base.Categories = append(append([]string(nil), categories...), p.ExtraCategories...)
	if len(p.ModuleSentinels) > 0 {
		base.ModuleSentinels = p.ModuleSentinels
	}
	if len(p.CoverageSkipModules) > 0 {
		base.CoverageSkipModules = p.CoverageSkipModules
	}
	if len(p.GovernanceExempt) > 0 {
		base.GovernanceExempt = p.GovernanceExempt
	}
	if len(p.EmissionsExcluded) > 0 {
		base.EmissionsExcluded = p.EmissionsExcluded
	}
	if p.StatsTolerance > 0 {
		base.StatsTolerance = p.StatsTolerance
	}
	return base
}

// ManifestDir returns the adapter manifest root, defaulting to the registry path.
func (c Config) ManifestDir() string {
	if c.Adapters.Dir != "" {
		return c.Adapters.Dir
	}
	return c.Registry.Path
}

// DefaultConfigDir returns ~/.config/regcheck, or empty if the home dir is unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "regcheck")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultHistoryPath returns the default run history database path.
func DefaultHistoryPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Registry: RegistryConfig{
			Path: ".",
		},
		Output: OutputConfig{
			Format: "text",
			FailOn: "hard",
			Color:  true,
		},
		Adapters: AdaptersConfig{
			Enabled:     true,
			Concurrency: 8,
			Timeout:     10 * time.Second,
			CacheTTL:    10 * time.Minute,
		},
		Policy: PolicyConfig{
			StatsTolerance: 0.05,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    DefaultHistoryPath(),
			Keep:    50,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors. Empty values use defaults.
func (c Config) Validate() error {
	if err := ValidateOutput(c.Output); err != nil {
		return err
	}
	if err := ValidateAdapters(c.Adapters); err != nil {
		return err
	}
	if err := ValidatePolicy(c.Policy); err != nil {
		return err
	}
	if err := ValidateHistory(c.History); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateOutput checks output configuration for errors.
func ValidateOutput(out OutputConfig) error {
	switch out.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("output.format must be \"text\" or \"json\", got %q", out.Format)
	}
	switch out.FailOn {
	case "", "hard", "soft":
	default:
		return fmt.Errorf("output.fail_on must be \"hard\" or \"soft\", got %q", out.FailOn)
	}
	return nil
}

// ValidateAdapters checks adapter configuration for errors.
func ValidateAdapters(a AdaptersConfig) error {
	if a.Concurrency < 0 {
		return fmt.Errorf("adapters.concurrency must not be negative, got %d", a.Concurrency)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("adapters.timeout must not be negative, got %s", a.Timeout)
	}
	if a.CacheTTL < 0 {
		return fmt.Errorf("adapters.cache_ttl must not be negative, got %s", a.CacheTTL)
	}
	return nil
}

// ValidatePolicy checks policy overrides for errors.
func ValidatePolicy(p PolicyConfig) error {
	if p.StatsTolerance < 0 || p.StatsTolerance > 1 {
		return fmt.Errorf("policy.stats_tolerance must be between 0.0 and 1.0, got %v", p.StatsTolerance)
	}
	return nil
}

// ValidateHistory checks history configuration for errors.
func ValidateHistory(h HistoryConfig) error {
	if h.Keep < 0 {
		return fmt.Errorf("history.keep must not be negative, got %d", h.Keep)
	}
	if h.Enabled && h.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# regcheck configuration

# Registry directory (chains.yaml, protocols.yaml, parents.yaml, ...)
registry:
  path: .
  # strict: true   # fail on the first duplicate key instead of reporting all

# Report output
output:
  format: text     # text (default) or json
  fail_on: hard    # exit non-zero on hard violations (default) or on any: soft
  color: true

# Adapter manifests (adapters/<module>.yaml under dir)
adapters:
  enabled: true
  # dir: /path/to/manifests   # default: the registry directory
  concurrency: 8
  timeout: 10s
  cache_ttl: 10m

# Check policy overrides (empty lists keep the built-in defaults)
policy:
  stats_tolerance: 0.05
  # extra_categories: ["New Category"]
  # governance_exempt: ["1384", "1401", "1853"]
  # module_sentinels: ["dummy.js"]
  # emissions_excluded: ["daomaker"]

# Run history (enables check --new-only)
history:
  enabled: false
  # path: ~/.config/regcheck/history.db
  keep: 50

# check --watch
watch:
  debounce: 300ms

# Tracing of check runs
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/regcheck/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# log:
#   level: info     # debug, info, warn, error
#   file: ""        # empty logs to stderr

# Feature flags
# flags:
#   strict-index: false
#   soft-as-hard: false
#   history: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
