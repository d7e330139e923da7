package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatcherConfig holds configuration for the tool watcher
type WatcherConfig struct {
	Root     string
	Layout   Layout
	Debounce time.Duration

	// OnToolChanged is called once per burst of edits to a tool's
	// entry-point file, metadata file or config directory
	OnToolChanged func(id string) error

	// OnCatalogChanged is called when tool directories appear or disappear
	OnCatalogChanged func() error
}

// Watcher monitors a tools root and reports edits per tool
type Watcher struct {
	logger         zerolog.Logger
	watcher        *fsnotify.Watcher
	config         WatcherConfig
	done           chan struct{}
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex
	stopOnce       sync.Once
}

// NewWatcher creates a new tool watcher
func NewWatcher(logger zerolog.Logger, config WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 200 * time.Millisecond
	}
	config.Layout = config.Layout.withDefaults()

	return &Watcher{
		logger:         logger.With().Str("component", "tool-watcher").Logger(),
		watcher:        watcher,
		config:         config,
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the tools root
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch tools directory: %w", err)
	}

	entries, err := os.ReadDir(w.config.Root)
	if err != nil {
		return fmt.Errorf("failed to read tools directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && ValidID(entry.Name()) {
			w.watchTool(filepath.Join(w.config.Root, entry.Name()))
		}
	}

	go w.eventLoop()

	w.logger.Info().
		Str("path", w.config.Root).
		Msg("Tool watcher started")
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	clear(w.debounceTimers)
	w.debounceMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Info().Msg("Tool watcher stopped")
	return nil
}

// watchTool adds a tool directory and its config directory
func (w *Watcher) watchTool(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn().Err(err).Str("path", dir).Msg("Failed to watch path")
		return
	}
	configDir := filepath.Join(dir, w.config.Layout.ConfigDir)
	if dirExists(configDir) {
		if err := w.watcher.Add(configDir); err != nil {
			w.logger.Warn().Err(err).Str("path", configDir).Msg("Failed to watch path")
		}
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

// handleEvent maps a file event to the tool it belongs to
func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.config.Root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}

	parts := strings.Split(rel, string(filepath.Separator))
	id := parts[0]
	if !ValidID(id) {
		return
	}

	switch len(parts) {
	case 1:
		// the tool directory itself appeared or went away
		if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
			return
		}
		if event.Op&fsnotify.Create != 0 && dirExists(event.Name) {
			w.watchTool(event.Name)
		}
		w.debounce("", func() { w.catalogChanged() })
		w.debounce(id, func() { w.toolChanged(id) })

	case 2:
		name := parts[1]
		if name == w.config.Layout.ConfigDir && event.Op&fsnotify.Create != 0 && dirExists(event.Name) {
			_ = w.watcher.Add(event.Name)
		}
		if name != w.config.Layout.EntryPoint &&
			name != w.config.Layout.MetadataFile &&
			name != w.config.Layout.ConfigDir {
			return
		}
		w.debounce(id, func() { w.toolChanged(id) })

	default:
		if parts[1] != w.config.Layout.ConfigDir || strings.HasPrefix(parts[len(parts)-1], ".") {
			return
		}
		w.debounce(id, func() { w.toolChanged(id) })
	}
}

// debounce collapses rapid events for the same key into one call
func (w *Watcher) debounce(key string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[key]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.config.Debounce, func() { w.fire(key, timer, fn) })
	w.debounceTimers[key] = timer
}

// fire runs fn for a debounce timer that went off. The map entry is only
// dropped while it still belongs to timer, so a newer timer stays stoppable.
func (w *Watcher) fire(key string, timer *time.Timer, fn func()) {
	w.debounceMu.Lock()
	if w.debounceTimers[key] == timer {
		delete(w.debounceTimers, key)
	}
	w.debounceMu.Unlock()

	select {
	case <-w.done:
		return
	default:
		fn()
	}
}

func (w *Watcher) toolChanged(id string) {
	if w.config.OnToolChanged == nil {
		return
	}
	if err := w.config.OnToolChanged(id); err != nil {
		w.logger.Error().
			Err(err).
			Str("id", id).
			Msg("Error handling tool change")
	}
}

func (w *Watcher) catalogChanged() {
	if w.config.OnCatalogChanged == nil {
		return
	}
	if err := w.config.OnCatalogChanged(); err != nil {
		w.logger.Error().Err(err).Msg("Error handling catalog change")
	}
}
