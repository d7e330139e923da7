package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appDir         = ".mint"
	configFileName = "mint.json"
	envPrefix      = "MINT"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// ErrConfigExists is returned by Init when the config file is already present
var ErrConfigExists = errors.New("config file already exists")

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader. An empty path selects ~/.mint/mint.json.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load reads the config file, applies MINT_* environment overrides and
// fills in derived paths. A missing file yields the defaults.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.path()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	bindEnv(v)

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDerivedDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv registers the keys that may be set through the environment only.
// AutomaticEnv alone does not reach keys absent from the config file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{"tools_dir", "data_dir", "glossary.path", "logging.level", "logging.file", "metrics.textfile", "metrics.addr", "tracing.enabled", "audit.enabled"} {
		_ = v.BindEnv(key)
	}
	v.SetEnvKeyReplacer(envKeyReplacer)
}

func applyDerivedDefaults(cfg *Config) error {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, appDir)
	}

	if cfg.ToolsDir == "" {
		cfg.ToolsDir = filepath.Join(cfg.DataDir, "tools")
	}

	if cfg.Glossary.Path == "" {
		cfg.Glossary.Path = filepath.Join(cfg.DataDir, "glossary.json")
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "mint.log")
	}

	if cfg.Audit.File == "" {
		cfg.Audit.File = filepath.Join(cfg.DataDir, "audit.log")
	}
	return nil
}

// Save writes cfg to the config file, creating its directory
func (l *Loader) Save(cfg *Config) error {
	configPath, err := l.path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("tools_dir", cfg.ToolsDir)
	v.Set("tools", cfg.Tools)
	v.Set("glossary", cfg.Glossary)
	v.Set("watch", cfg.Watch)
	v.Set("logging", cfg.Logging)
	v.Set("metrics", cfg.Metrics)
	v.Set("tracing", cfg.Tracing)
	v.Set("audit", cfg.Audit)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Init writes a config file holding the defaults. An existing file is only
// replaced when force is set.
func (l *Loader) Init(force bool) (*Config, error) {
	configPath, err := l.path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}

	cfg := DefaultConfig()
	if err := applyDerivedDefaults(cfg); err != nil {
		return nil, err
	}
	if err := l.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	path, err := l.path()
	if err != nil {
		return ""
	}
	return path
}

func (l *Loader) path() (string, error) {
	if l.configPath != "" {
		return l.configPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, appDir, configFileName), nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
