// Package config loads and validates the sitewatch configuration from a YAML
// file, the environment, and command-line overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitewatch/internal/errors"
)

// DefaultConfigFile is the project-local configuration file name.
const DefaultConfigFile = "sitewatch.yaml"

// DefaultIgnorePatterns covers common editor and temp artifacts. Applied when
// the config file does not provide its own ignore list; CLI ignores append.
var DefaultIgnorePatterns = []string{
	"**/*~",
	"**/*.swp",
	"**/*.swx",
	"**/.#*",
	"**/#*#",
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/4913",
}

// Config represents the application configuration
type Config struct {
	Build      BuildConfig      `yaml:"build"`
	Watch      WatchConfig      `yaml:"watch"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`

	// Root is the project root all relative paths resolve against.
	// Defaults to the process working directory.
	Root string `yaml:"-"`
}

// BuildConfig configures the external build command and its output.
type BuildConfig struct {
	// Command is the shell-tokenized build command. Empty selects the
	// builtin markdown renderer.
	Command string `yaml:"command"`
	Output  string `yaml:"output"`
}

// WatchConfig configures change detection.
type WatchConfig struct {
	Patterns []string `yaml:"patterns"`
	Ignore   []string `yaml:"ignore"`
	Interval string   `yaml:"interval"`
	Mode     string   `yaml:"mode"`

	// PollInterval is the parsed form of Interval, set by Load/Validate.
	PollInterval time.Duration `yaml:"-"`
}

// ServerConfig configures the static file server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	LiveReload *bool  `yaml:"live_reload,omitempty"`
}

// LoggingConfig configures slog level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MonitoringConfig configures the optional metrics endpoint.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
}

// MonitoringMetrics toggles Prometheus metrics exposure on the docs server.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LiveReloadEnabled reports whether livereload is on (default true).
func (c *Config) LiveReloadEnabled() bool {
	if c.Server.LiveReload == nil {
		return true
	}
	return *c.Server.LiveReload
}

// Load loads configuration from the specified file. A missing file is not an
// error: the tool can run entirely from CLI flags. Defaults are applied but
// validation is deferred until CLI overrides have been merged.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	config := &Config{}
	if configPath == "" {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// CLI flags may still provide a complete configuration.
	case err != nil:
		return nil, errors.WrapFatal(err, errors.CategoryConfig, "failed to read config file")
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
			return nil, errors.WrapFatal(err, errors.CategoryConfig, "failed to unmarshal config")
		}
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Root = wd
		} else {
			c.Root = "."
		}
	}
	if c.Build.Output == "" {
		c.Build.Output = "./site"
	}
	if len(c.Watch.Ignore) == 0 {
		c.Watch.Ignore = append([]string(nil), DefaultIgnorePatterns...)
	}
	if c.Watch.Interval == "" {
		c.Watch.Interval = "500ms"
	}
	if c.Watch.Mode == "" {
		c.Watch.Mode = string(WatchModePoll)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = "/metrics"
	}
}

// Overrides carries command-line values merged over the file configuration.
// Watch and Ignore append; the rest replace when non-zero.
type Overrides struct {
	Output   string
	Command  *string
	Watch    []string
	Ignore   []string
	Host     *string
	Port     int
	Interval string
	Mode     string
}

// Apply merges CLI overrides into the configuration.
func (c *Config) Apply(ov Overrides) {
	if ov.Output != "" {
		c.Build.Output = ov.Output
	}
	if ov.Command != nil {
		c.Build.Command = *ov.Command
	}
	c.Watch.Patterns = append(c.Watch.Patterns, ov.Watch...)
	c.Watch.Ignore = append(c.Watch.Ignore, ov.Ignore...)
	if ov.Host != nil {
		c.Server.Host = *ov.Host
	}
	if ov.Port != 0 {
		c.Server.Port = ov.Port
	}
	if ov.Interval != "" {
		c.Watch.Interval = ov.Interval
	}
	if ov.Mode != "" {
		c.Watch.Mode = ov.Mode
	}
}

// Validate checks the merged configuration and resolves parsed fields.
// It must run after Apply and before any loop starts.
func (c *Config) Validate() error {
	if len(c.Watch.Patterns) == 0 {
		return errors.Fatal(errors.CategoryValidation, "watch pattern list is empty (configure watch.patterns or pass --watch)")
	}
	for _, pat := range append(append([]string(nil), c.Watch.Patterns...), c.Watch.Ignore...) {
		if !doublestar.ValidatePattern(pat) {
			return errors.Fatal(errors.CategoryValidation, fmt.Sprintf("invalid glob pattern: %q", pat))
		}
	}

	interval, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return errors.WrapFatal(err, errors.CategoryValidation, fmt.Sprintf("invalid watch.interval %q", c.Watch.Interval))
	}
	if interval <= 0 {
		return errors.Fatal(errors.CategoryValidation, "watch.interval must be positive")
	}
	c.Watch.PollInterval = interval

	if NormalizeWatchMode(c.Watch.Mode) == "" {
		return errors.Fatal(errors.CategoryValidation, fmt.Sprintf("invalid watch.mode %q (poll or notify)", c.Watch.Mode))
	}
	c.Watch.Mode = string(NormalizeWatchMode(c.Watch.Mode))

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Fatal(errors.CategoryValidation, fmt.Sprintf("invalid server.port %d", c.Server.Port))
	}
	return nil
}

// WatchMode enumerates the supported change detection backends.
type WatchMode string

const (
	WatchModePoll   WatchMode = "poll"
	WatchModeNotify WatchMode = "notify"
)

// NormalizeWatchMode maps raw input to a WatchMode, returning "" when invalid.
func NormalizeWatchMode(raw string) WatchMode {
	switch raw {
	case "", string(WatchModePoll):
		return WatchModePoll
	case string(WatchModeNotify):
		return WatchModeNotify
	default:
		return ""
	}
}
