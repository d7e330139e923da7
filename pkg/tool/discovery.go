package tool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Discovery scans a tools root for tool directories
type Discovery struct {
	logger   zerolog.Logger
	metadata *MetadataLoader
	layout   Layout
}

// NewDiscovery creates a new discovery instance
func NewDiscovery(logger zerolog.Logger, layout Layout) *Discovery {
	return &Discovery{
		logger:   logger.With().Str("component", "tool-discovery").Logger(),
		metadata: NewMetadataLoader(logger),
		layout:   layout.withDefaults(),
	}
}

// Layout returns the directory layout used by this discovery
func (d *Discovery) Layout() Layout {
	return d.layout
}

// Scan returns a descriptor for every valid tool under root.
// A missing root yields no tools. Invalid ids, hidden entries and
// directories without an entry-point file are skipped.
func (d *Discovery) Scan(root string) ([]Descriptor, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Debug().Str("dir", root).Msg("Tools directory does not exist, skipping")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	var discovered []Descriptor
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !ValidID(name) {
			d.logger.Debug().Str("name", name).Msg("Skipping directory with invalid tool id")
			continue
		}

		desc, err := d.Describe(root, name)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				d.logger.Warn().Err(err).Str("id", name).Msg("Failed to describe tool")
			}
			continue
		}

		discovered = append(discovered, desc)
		d.logger.Debug().
			Str("id", desc.ID).
			Str("path", desc.Dir).
			Msg("Discovered tool")
	}

	d.logger.Info().Int("count", len(discovered)).Msg("Tool discovery completed")
	return discovered, nil
}

// Describe builds the descriptor for a single tool directory
func (d *Discovery) Describe(root, id string) (Descriptor, error) {
	if !ValidID(id) {
		return Descriptor{}, newError(KindInvalidID, id, nil)
	}

	dir := filepath.Join(root, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Descriptor{}, newError(KindNotFound, id, fmt.Errorf("no tool directory at %s", dir))
	}

	entryPath := filepath.Join(dir, d.layout.EntryPoint)
	if info, err := os.Stat(entryPath); err != nil || info.IsDir() {
		return Descriptor{}, newError(KindNotFound, id, fmt.Errorf("no %s in %s", d.layout.EntryPoint, dir))
	}

	defaults := Defaults(id)
	defaults.Dir = dir
	defaults.EntryPath = entryPath

	metadataPath := filepath.Join(dir, d.layout.MetadataFile)
	if fileExists(metadataPath) {
		defaults.MetadataPath = metadataPath
	}

	configDir := filepath.Join(dir, d.layout.ConfigDir)
	if dirExists(configDir) {
		defaults.ConfigDir = configDir
	}

	meta, warnings := d.metadata.Load(metadataPath)
	defaults.Warnings = warnings

	return MergeDefaults(meta, defaults), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
