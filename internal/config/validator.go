package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateFileName checks that name is a plain file or directory name
// inside a tool directory
func (v *Validator) ValidateFileName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%s must be a plain name, got %q", field, name)
	}
	return nil
}

// ValidateThreshold validates a similarity threshold
func (v *Validator) ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("glossary suggest_threshold must be in (0, 1], got %g", threshold)
	}
	return nil
}

// ValidateSampleRatio validates a tracing sample ratio
func (v *Validator) ValidateSampleRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 {
		return fmt.Errorf("tracing sample_ratio must be between 0 and 1, got %g", ratio)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateFileName("tools.entry_point", cfg.Tools.EntryPoint); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateFileName("tools.metadata_file", cfg.Tools.MetadataFile); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateFileName("tools.config_dir", cfg.Tools.ConfigDir); err != nil {
		errors = append(errors, err)
	}
	if cfg.Tools.EntryPoint == cfg.Tools.MetadataFile {
		errors = append(errors, fmt.Errorf("tools.entry_point and tools.metadata_file must differ"))
	}

	if err := v.ValidateThreshold(cfg.Glossary.SuggestThreshold); err != nil {
		errors = append(errors, err)
	}

	if cfg.Watch.DebounceMs < 0 {
		errors = append(errors, fmt.Errorf("watch.debounce_ms must be >= 0"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}

	if cfg.Tracing.Enabled {
		if err := v.ValidateSampleRatio(cfg.Tracing.SampleRatio); err != nil {
			errors = append(errors, err)
		}
	}

	return errors
}
