package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Output formats understood by the output package.
var Formats = []string{"json", "yaml", "chrome", "table", "timeline", "tree", "none"}

// Config holds application settings. Values come from, lowest precedence
// first: defaults, a process-timeline.yaml file, PROCESS_TIMELINE_*
// environment variables, and command-line flags applied by the caller.
type Config struct {
	Format          string        `mapstructure:"format"`
	Output          string        `mapstructure:"output"`
	Verbose         bool          `mapstructure:"verbose"`
	JSONLogs        bool          `mapstructure:"json_logs"`
	KeepGoing       bool          `mapstructure:"keep_going"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	DBPath          string        `mapstructure:"db_path"`
	Labels          []string      `mapstructure:"labels"`
	TraceID         string        `mapstructure:"trace_id"`
	Export          bool          `mapstructure:"export"`

	Strace StraceConfig `mapstructure:"strace"`
}

// StraceConfig controls how the tracer subprocess is launched.
type StraceConfig struct {
	Path        string `mapstructure:"path"`
	StringLimit int    `mapstructure:"string_limit"`
	CaptureEnv  bool   `mapstructure:"capture_env"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:          "timeline",
		Output:          "-",
		RefreshInterval: time.Second,
		Strace: StraceConfig{
			Path:        "strace",
			StringLimit: 1 << 20,
		},
	}
}

// Load loads configuration from the standard locations and the environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("process-timeline")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/process-timeline/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "process-timeline"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file, still honoring
// environment overrides.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("PROCESS_TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("json_logs", cfg.JSONLogs)
	v.SetDefault("keep_going", cfg.KeepGoing)
	v.SetDefault("refresh_interval", cfg.RefreshInterval)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("labels", cfg.Labels)
	v.SetDefault("trace_id", cfg.TraceID)
	v.SetDefault("export", cfg.Export)
	v.SetDefault("strace.path", cfg.Strace.Path)
	v.SetDefault("strace.string_limit", cfg.Strace.StringLimit)
	v.SetDefault("strace.capture_env", cfg.Strace.CaptureEnv)

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed as types.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Strace.StringLimit <= 0 {
		return fmt.Errorf("strace.string_limit must be positive, got %d", c.Strace.StringLimit)
	}
	return nil
}

// CustomAttributes parses the configured labels.
func (c *Config) CustomAttributes() ([]CustomAttribute, error) {
	attrs := make([]CustomAttribute, 0, len(c.Labels))
	for _, label := range c.Labels {
		attr, err := ParseCustomAttribute(label)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// ParseCommand extracts the traced command from the arguments that follow
// "--" on the command line.
func ParseCommand(args []string) (string, []string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", nil, fmt.Errorf("no command specified (usage: record [flags] -- <command> [args...])")
	}
	return args[0], args[1:], nil
}
