// Package config provides configuration types and defaults for factorytown.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/factorytown/internal/log"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// EnvPrefix prefixes every environment override, e.g. FACTORYTOWN_CACHE_BACKEND.
const EnvPrefix = "FACTORYTOWN"

// DefaultConfigPath is where `config init` writes and where the project
// config is looked up first.
const DefaultConfigPath = ".factorytown/config.yaml"

// Config holds all configuration options for factorytown.
type Config struct {
	// ProjectDir is the root that relative paths resolve against.
	// Set with FACTORYTOWN_PROJECT_DIR. Default: current directory.
	ProjectDir string        `mapstructure:"project_dir"`
	Wiki       WikiConfig    `mapstructure:"wiki"`
	Cache      CacheConfig   `mapstructure:"cache"`
	Model      ModelConfig   `mapstructure:"model"`
	Log        LogConfig     `mapstructure:"log"`
	Tracing    TracingConfig `mapstructure:"tracing"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
}

// WikiConfig configures page fetching.
type WikiConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig selects and configures the page cache.
type CacheConfig struct {
	// Backend is "file" (default), "sqlite" or "s3".
	Backend string `mapstructure:"backend"`

	// Dir is the file backend root. Pages live under <dir>/http and <dir>/md.
	Dir string `mapstructure:"dir"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`

	// MemoryTTL is how long pages stay in the in-process read-through layer.
	// Zero disables the layer.
	MemoryTTL time.Duration `mapstructure:"memory_ttl"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures the s3 cache backend. Credentials come from the
// standard AWS environment and shared config.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Prefix    string `mapstructure:"prefix"`
	PathStyle bool   `mapstructure:"path_style"`
}

// ModelConfig configures model building.
type ModelConfig struct {
	// StrictReferences makes names referenced but never defined fatal.
	StrictReferences bool `mapstructure:"strict_references"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warning (default) or error.
	Level string `mapstructure:"level"`
	// File receives log output. Empty logs to stderr.
	File string `mapstructure:"file"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/factorytown/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig configures Prometheus textfile output.
type MetricsConfig struct {
	// Textfile is written after each scrape. Empty disables metrics output.
	Textfile string `mapstructure:"textfile"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/factorytown/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "factorytown", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Wiki: WikiConfig{
			BaseURL:   "https://factorytown.fandom.com/wiki",
			Timeout:   30 * time.Second,
			UserAgent: "factorytown-scraper",
		},
		Cache: CacheConfig{
			Backend:    BackendFile,
			Dir:        filepath.Join("data", "cache", "scrape"),
			SQLitePath: filepath.Join("data", "cache", "scrape.db"),
			MemoryTTL:  10 * time.Minute,
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "scrape/",
			},
		},
		Log: LogConfig{
			Level: "warning",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// SetDefaults registers every default with v so that keys missing from the
// config file still unmarshal to their defaults.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("project_dir", d.ProjectDir)
	v.SetDefault("wiki.base_url", d.Wiki.BaseURL)
	v.SetDefault("wiki.timeout", d.Wiki.Timeout)
	v.SetDefault("wiki.user_agent", d.Wiki.UserAgent)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.sqlite_path", d.Cache.SQLitePath)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.s3.bucket", d.Cache.S3.Bucket)
	v.SetDefault("cache.s3.region", d.Cache.S3.Region)
	v.SetDefault("cache.s3.endpoint", d.Cache.S3.Endpoint)
	v.SetDefault("cache.s3.prefix", d.Cache.S3.Prefix)
	v.SetDefault("cache.s3.path_style", d.Cache.S3.PathStyle)
	v.SetDefault("model.strict_references", d.Model.StrictReferences)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Load reads configuration into a fresh viper instance. An empty path
// searches DefaultConfigPath then ~/.config/factorytown/config.yaml; no
// config file at all is not an error. Environment variables prefixed with
// FACTORYTOWN_ override file values. It returns the config file used, if any.
func Load(path string) (Config, string, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(DefaultConfigPath); err == nil {
		v.SetConfigFile(DefaultConfigPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "factorytown"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	log.Debug(log.CatConfig, "Loaded config", "file", v.ConfigFileUsed(), "backend", cfg.Cache.Backend)
	return cfg, v.ConfigFileUsed(), nil
}

// ResolvePath returns p unchanged if it is absolute or empty, otherwise p
// joined to ProjectDir.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.ProjectDir == "" {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateWiki(c.Wiki); err != nil {
		return err
	}
	if err := ValidateCache(c.Cache); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateWiki checks the wiki section.
func ValidateWiki(w WikiConfig) error {
	if w.BaseURL == "" {
		return fmt.Errorf("wiki.base_url is required")
	}
	u, err := url.Parse(w.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("wiki.base_url must be an http(s) URL, got %q", w.BaseURL)
	}
	if w.Timeout < 0 {
		return fmt.Errorf("wiki.timeout must not be negative, got %v", w.Timeout)
	}
	return nil
}

// ValidateCache checks the cache section.
func ValidateCache(c CacheConfig) error {
	switch c.Backend {
	case BackendFile:
		if c.Dir == "" {
			return fmt.Errorf("cache.dir is required when backend is %q", BackendFile)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required when backend is %q", BackendSQLite)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("cache.s3.bucket is required when backend is %q", BackendS3)
		}
	default:
		return fmt.Errorf("cache.backend must be %q, %q, or %q, got %q", BackendFile, BackendSQLite, BackendS3, c.Backend)
	}
	if c.MemoryTTL < 0 {
		return fmt.Errorf("cache.memory_ttl must not be negative, got %v", c.MemoryTTL)
	}
	return nil
}

// ValidateLog checks the log section.
func ValidateLog(l LogConfig) error {
	if l.Level == "" {
		return nil
	}
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
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
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is enabled
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# factorytown configuration

# Wiki page source
wiki:
  base_url: https://factorytown.fandom.com/wiki
  timeout: 30s
  user_agent: factorytown-scraper

# Page cache. Fetched pages are stored raw (namespace http) and as
# extracted wikitext (namespace md).
cache:
  backend: file                     # file (default), sqlite, or s3
  dir: data/cache/scrape            # file backend root
  sqlite_path: data/cache/scrape.db # sqlite backend database
  memory_ttl: 10m                   # in-process read-through layer, 0 disables
  # s3:
  #   bucket: my-bucket
  #   region: us-east-1
  #   endpoint: http://localhost:9000  # S3-compatible endpoint (optional)
  #   prefix: scrape/
  #   path_style: true                 # required by most S3-compatible servers

# Model building
model:
  strict_references: false  # fail when a name is referenced but never defined

# Logging
log:
  level: warning  # debug, info, warning (default), or error
  # file: factorytown.log  # default: stderr

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/factorytown/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Prometheus textfile output, written after each scrape
# metrics:
#   textfile: data/metrics/factorytown.prom
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
