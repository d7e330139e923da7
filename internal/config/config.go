package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the mint configuration
type Config struct {
	// Root directory holding one subdirectory per tool
	ToolsDir string `json:"tools_dir" mapstructure:"tools_dir"`

	// Tool directory layout
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Glossary used by the glossary commands when no tool is selected
	Glossary GlossaryConfig `json:"glossary" mapstructure:"glossary"`

	// Watch mode
	Watch WatchConfig `json:"watch" mapstructure:"watch"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Audit trail of runs and glossary edits
	Audit AuditConfig `json:"audit" mapstructure:"audit"`

	// Data directory for logs and the default glossary
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ToolsConfig holds the file names every tool directory is expected to use
type ToolsConfig struct {
	EntryPoint   string `json:"entry_point" mapstructure:"entry_point"`
	MetadataFile string `json:"metadata_file" mapstructure:"metadata_file"`
	ConfigDir    string `json:"config_dir" mapstructure:"config_dir"`
}

// GlossaryConfig holds glossary settings
type GlossaryConfig struct {
	Path             string  `json:"path" mapstructure:"path"`
	SuggestThreshold float64 `json:"suggest_threshold" mapstructure:"suggest_threshold"`
}

// WatchConfig holds hot reload settings
type WatchConfig struct {
	DebounceMs int `json:"debounce_ms" mapstructure:"debounce_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// Textfile is written after each run when set
	Textfile string `json:"textfile" mapstructure:"textfile"`
	// Addr serves /metrics while watching when set, e.g. "127.0.0.1:9464"
	Addr string `json:"addr" mapstructure:"addr"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName string  `json:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio"`
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			EntryPoint:   "tool.hcl",
			MetadataFile: "tool.meta.yaml",
			ConfigDir:    "config",
		},
		Glossary: GlossaryConfig{
			SuggestThreshold: 0.85,
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			Pretty:    true,
			MaxSize:   10,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "mint",
			SampleRatio: 1,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ToolsDir == "" {
		return fmt.Errorf("tools_dir is required")
	}

	if errs := NewValidator().ValidateConfig(c); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
