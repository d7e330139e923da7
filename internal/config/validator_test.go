package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("trace"))
	assert.Error(t, v.ValidateLogLevel(""))
}

func TestValidateFileName(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"plain name", "tool.hcl", false},
		{"directory name", "config", false},
		{"empty", "", true},
		{"blank", "  ", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"nested", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFileName("field", tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateThreshold(0.85))
	assert.NoError(t, v.ValidateThreshold(1))
	assert.Error(t, v.ValidateThreshold(0))
	assert.Error(t, v.ValidateThreshold(1.1))
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.Empty(t, v.ValidateConfig(DefaultConfig()))
	})

	t.Run("collects every error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.MetadataFile = cfg.Tools.EntryPoint
		cfg.Watch.DebounceMs = -1
		cfg.Logging.Level = "loud"
		cfg.Tracing.Enabled = true
		cfg.Tracing.SampleRatio = 2

		assert.Len(t, v.ValidateConfig(cfg), 4)
	})
}
