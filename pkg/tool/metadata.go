package tool

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// metadataFields lists the recognised keys in schema order
var metadataFields = []string{"name", "description", "icon", "version", "author"}

// MetadataLoader reads and validates tool.meta.yaml files.
// It never fails: problems are returned as warnings and the
// affected fields fall back to their defaults.
type MetadataLoader struct {
	logger       zerolog.Logger
	schemaLoader gojsonschema.JSONLoader
}

// NewMetadataLoader creates a new metadata loader
func NewMetadataLoader(logger zerolog.Logger) *MetadataLoader {
	return &MetadataLoader{
		logger:       logger.With().Str("component", "tool-metadata").Logger(),
		schemaLoader: gojsonschema.NewStringLoader(MetadataSchema),
	}
}

// Load reads the metadata file at path. A missing or empty file
// yields empty metadata without warnings.
func (m *MetadataLoader) Load(path string) (Metadata, []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, nil
		}
		warning := fmt.Sprintf("%v: failed to read %s: %v", ErrMetadataInvalid, path, err)
		m.logger.Warn().Err(err).Str("path", path).Msg("Failed to read tool metadata")
		return Metadata{}, []string{warning}
	}

	meta, warnings := m.Parse(data)
	for _, w := range warnings {
		m.logger.Warn().Str("path", path).Str("warning", w).Msg("Tool metadata is invalid, using defaults")
	}
	return meta, warnings
}

// Parse decodes metadata from YAML bytes
func (m *MetadataLoader) Parse(data []byte) (Metadata, []string) {
	if strings.TrimSpace(string(data)) == "" {
		return Metadata{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, []string{fmt.Sprintf("%v: failed to parse YAML: %v", ErrMetadataInvalid, err)}
	}
	if doc == nil {
		return Metadata{}, nil
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return Metadata{}, []string{fmt.Sprintf("%v: document must be a mapping", ErrMetadataInvalid)}
	}

	rejected, warnings := m.validateSchema(fields)

	var meta Metadata
	for _, key := range metadataFields {
		if rejected[key] {
			continue
		}
		raw, present := fields[key]
		if !present {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			meta.Name = &value
		case "description":
			meta.Description = &value
		case "icon":
			meta.Icon = &value
		case "author":
			meta.Author = &value
		case "version":
			if _, err := semver.StrictNewVersion(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("%v: version %q is not semver: %v", ErrMetadataInvalid, value, err))
				continue
			}
			meta.Version = &value
		}
	}

	return meta, warnings
}

// validateSchema returns the set of fields that failed validation
func (m *MetadataLoader) validateSchema(fields map[string]any) (map[string]bool, []string) {
	result, err := gojsonschema.Validate(m.schemaLoader, gojsonschema.NewGoLoader(fields))
	if err != nil {
		// Values the schema loader cannot represent are treated as a wholly invalid document
		rejected := make(map[string]bool, len(metadataFields))
		for _, key := range metadataFields {
			rejected[key] = true
		}
		return rejected, []string{fmt.Sprintf("%v: schema validation error: %v", ErrMetadataInvalid, err)}
	}

	if result.Valid() {
		return nil, nil
	}

	rejected := make(map[string]bool)
	var warnings []string
	for _, resultErr := range result.Errors() {
		rejected[resultErr.Field()] = true
		warnings = append(warnings, fmt.Sprintf("%v: %s", ErrMetadataInvalid, resultErr.String()))
	}
	sort.Strings(warnings)
	return rejected, warnings
}

// MergeDefaults overlays parsed metadata on top of defaults.
// Declared fields win; absent fields keep the default value.
func MergeDefaults(parsed Metadata, defaults Descriptor) Descriptor {
	merged := defaults
	if parsed.Name != nil {
		merged.Name = *parsed.Name
	}
	if parsed.Description != nil {
		merged.Description = *parsed.Description
	}
	if parsed.Icon != nil {
		merged.Icon = *parsed.Icon
	}
	if parsed.Version != nil {
		merged.Version = *parsed.Version
	}
	if parsed.Author != nil {
		merged.Author = *parsed.Author
	}
	if len(defaults.Warnings) > 0 {
		merged.Warnings = append([]string(nil), defaults.Warnings...)
	}
	return merged
}
