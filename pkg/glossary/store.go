package glossary

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists a glossary as a JSON object on disk.
// Every mutation rewrites the whole file through a temp file and rename,
// so readers never observe a partial write.
type Store struct {
	logger   zerolog.Logger
	path     string
	defaults *Glossary
	mu       sync.Mutex
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithDefaults sets the glossary used when the file is missing, empty or malformed
func WithDefaults(g *Glossary) StoreOption {
	return func(s *Store) {
		s.defaults = g.Clone()
	}
}

// NewStore creates a store backed by the file at path
func NewStore(logger zerolog.Logger, path string, opts ...StoreOption) *Store {
	s := &Store{
		logger:   logger.With().Str("component", "glossary-store").Logger(),
		path:     path,
		defaults: &Glossary{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the glossary. It never fails: a missing or empty file yields
// the defaults, and malformed content is logged and replaced by the defaults.
func (s *Store) Load() *Glossary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() *Glossary {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read glossary, using defaults")
		} else {
			s.logger.Debug().Str("path", s.path).Msg("Glossary file does not exist, using defaults")
		}
		return s.defaults.Clone()
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return s.defaults.Clone()
	}

	g := &Glossary{}
	if err := g.UnmarshalJSON(data); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Glossary file is malformed, using defaults")
		return s.defaults.Clone()
	}

	s.logger.Debug().
		Str("path", s.path).
		Int("entries", g.Len()).
		Msg("Glossary loaded")
	return g
}

// Add sets key to value and persists the glossary
func (s *Store) Add(key, value string) (*Glossary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.loadLocked()
	if err := g.Set(key, value); err != nil {
		return nil, err
	}
	if err := s.saveLocked(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Remove deletes key and persists the glossary
func (s *Store) Remove(key string) (*Glossary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.loadLocked()
	if !g.Delete(key) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err := s.saveLocked(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Save replaces the persisted glossary with g
func (s *Store) Save(g *Glossary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(g)
}

func (s *Store) saveLocked(g *Glossary) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create glossary directory: %w", err)
	}
	if err := s.backupMalformedLocked(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set glossary permissions: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.logger.Debug().
		Str("path", s.path).
		Int("entries", g.Len()).
		Msg("Glossary saved")
	return nil
}

// backupMalformedLocked copies an unparseable glossary file to <path>.bak
// before it is overwritten.
func (s *Store) backupMalformedLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := (&Glossary{}).UnmarshalJSON(data); err == nil {
		return nil
	}

	backup := s.path + ".bak"
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return fmt.Errorf("failed to back up malformed glossary: %w", err)
	}
	s.logger.Warn().
		Str("path", s.path).
		Str("backup", backup).
		Msg("Overwriting malformed glossary, previous content backed up")
	return nil
}
