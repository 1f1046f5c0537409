package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Sources  SourcesConfig  `yaml:"sources" envconfig:"SOURCES"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// SourcesConfig locates the results and targets inputs. URLs take
// precedence over the local fallback files, matching how site operators
// publish exports (a shared URL plus an offline copy in the data dir).
type SourcesConfig struct {
	ResultsURL   string        `yaml:"results_url" envconfig:"RESULTS_URL" validate:"omitempty,url"`
	TargetsURL   string        `yaml:"targets_url" envconfig:"TARGETS_URL" validate:"omitempty,url"`
	ResultsFile  string        `yaml:"results_file" envconfig:"RESULTS_FILE"`
	TargetsFile  string        `yaml:"targets_file" envconfig:"TARGETS_FILE"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	SheetNames   []string      `yaml:"sheet_names" envconfig:"SHEET_NAMES"`
	WatchDataDir bool          `yaml:"watch_data_dir" envconfig:"WATCH_DATA_DIR"`
}

// PipelineConfig carries the explicit pipeline knobs. Empty slices fall
// back to the dataprocessing defaults.
type PipelineConfig struct {
	UnitSuffixes       []string `yaml:"unit_suffixes" envconfig:"UNIT_SUFFIXES"`
	NonDetectTokens    []string `yaml:"non_detect_tokens" envconfig:"NON_DETECT_TOKENS"`
	DateColumnPriority []string `yaml:"date_column_priority" envconfig:"DATE_COLUMN_PRIORITY"`
	StrictComparisons  bool     `yaml:"strict_comparisons" envconfig:"STRICT_COMPARISONS"`
}

// Default returns the built-in configuration. File and environment
// values overlay these, in that order.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
		Sources: SourcesConfig{
			FetchTimeout: 30 * time.Second,
			WatchDataDir: true,
		},
	}
}

// Load loads configuration from the default config file location and the
// environment. Environment variables (prefix AQUA) take precedence.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration with an explicit config file path.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("AQUA", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration using struct-level validation tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns the default config file location, overridable
// for tests and packaged deployments.
func configFilePath() string {
	if p := os.Getenv("AQUA_CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}
