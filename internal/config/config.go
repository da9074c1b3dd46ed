package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vango-dev/reactive/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactive.json"

	// YAMLConfigFileName is the YAML alternative to ConfigFileName.
	YAMLConfigFileName = "reactive.yaml"

	// DefaultInspectAddr is the default inspect server address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultEventBuffer is the default per-connection event buffer.
	DefaultEventBuffer = 256

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "reactive"

	// DefaultDemoInterval is the default tick of the serve demo state.
	DefaultDemoInterval = "1s"
)

// Config represents the complete reactive.json configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// LogFormat is text or json.
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`

	// Inspect contains inspect server configuration.
	Inspect InspectConfig `json:"inspect" yaml:"inspect"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Demo contains settings for the demo state driven by serve.
	Demo DemoConfig `json:"demo" yaml:"demo"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectConfig contains inspect server settings.
type InspectConfig struct {
	// Enabled starts the inspect server.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// EventBuffer is the per-connection event buffer size.
	EventBuffer int `json:"eventBuffer,omitempty" yaml:"eventBuffer,omitempty"`

	// TrackEvents streams track events in addition to triggers and runs.
	TrackEvents bool `json:"trackEvents,omitempty" yaml:"trackEvents,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the metrics observer and serves /metrics.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled registers the tracing observer.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`

	// TriggerSpans records a span per trigger.
	TriggerSpans bool `json:"triggerSpans,omitempty" yaml:"triggerSpans,omitempty"`
}

// DemoConfig contains demo state settings.
type DemoConfig struct {
	// Interval is the tick between demo writes (e.g., "1s").
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Inspect: InspectConfig{
			Enabled:     true,
			Addr:        DefaultInspectAddr,
			EventBuffer: DefaultEventBuffer,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Demo: DemoConfig{
			Interval: DefaultDemoInterval,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reactive.json, then reactive.yaml, in the directory.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R100").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("R101").Wrap(err)
	}

	cfg := New()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, errors.New("R101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is well-formed")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads reactive.json from dir, or returns the defaults when
// the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "R100") {
		return New(), nil
	}
	return cfg, err
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := marshal(path, c)
	if err != nil {
		return errors.New("R101").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Inspect.EventBuffer == 0 {
		c.Inspect.EventBuffer = DefaultEventBuffer
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Demo.Interval == "" {
		c.Demo.Interval = DefaultDemoInterval
	}
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Newf(errors.CategoryConfig, "log format must be text or json, got %q", c.LogFormat)
	}
	if c.Inspect.Enabled {
		if _, _, err := net.SplitHostPort(c.Inspect.Addr); err != nil {
			return errors.New("R103").Wrap(err)
		}
	}
	if c.Inspect.EventBuffer < 1 {
		return errors.Newf(errors.CategoryConfig, "inspect.eventBuffer must be positive, got %d", c.Inspect.EventBuffer)
	}
	if !metricName.MatchString(c.Metrics.Namespace) {
		return errors.New("R104").WithDetail("namespace " + c.Metrics.Namespace + " is not a valid metric name")
	}
	if c.Metrics.Subsystem != "" && !metricName.MatchString(c.Metrics.Subsystem) {
		return errors.New("R104").WithDetail("subsystem " + c.Metrics.Subsystem + " is not a valid metric name")
	}
	if d, err := time.ParseDuration(c.Demo.Interval); err != nil || d <= 0 {
		return errors.New("R105").WithDetail("got " + c.Demo.Interval)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// DemoInterval returns the demo tick interval, or one second when it does
// not parse.
func (c *Config) DemoInterval() time.Duration {
	d, err := time.ParseDuration(c.Demo.Interval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("R102").WithDetail("unknown level " + s)
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
