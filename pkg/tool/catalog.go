package tool

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Catalog is the cached registry of discovered tools.
// The first ListTools call scans the root; later calls return the
// cached snapshot until it is invalidated.
type Catalog struct {
	logger    zerolog.Logger
	discovery *Discovery
	root      string

	snapshot map[string]Descriptor // nil until the first scan
	stale    map[string]bool
	mu       sync.RWMutex
}

// NewCatalog creates a catalog over the tools under root
func NewCatalog(logger zerolog.Logger, root string, layout Layout) *Catalog {
	return &Catalog{
		logger:    logger.With().Str("component", "tool-catalog").Logger(),
		discovery: NewDiscovery(logger, layout),
		root:      root,
		stale:     make(map[string]bool),
	}
}

// Root returns the tools root directory
func (c *Catalog) Root() string {
	return c.root
}

// Layout returns the tool directory layout
func (c *Catalog) Layout() Layout {
	return c.discovery.Layout()
}

// ListTools returns every tool sorted by display name, case-insensitively,
// with ties broken by id
func (c *Catalog) ListTools() ([]Descriptor, error) {
	snapshot, err := c.current()
	if err != nil {
		return nil, err
	}

	tools := make([]Descriptor, 0, len(snapshot))
	for _, desc := range snapshot {
		tools = append(tools, desc)
	}
	sort.Slice(tools, func(i, j int) bool {
		a, b := strings.ToLower(tools[i].Name), strings.ToLower(tools[j].Name)
		if a != b {
			return a < b
		}
		return tools[i].ID < tools[j].ID
	})
	return tools, nil
}

// Lookup returns the id-keyed view of the current snapshot
func (c *Catalog) Lookup() (map[string]Descriptor, error) {
	snapshot, err := c.current()
	if err != nil {
		return nil, err
	}

	view := make(map[string]Descriptor, len(snapshot))
	for id, desc := range snapshot {
		view[id] = desc
	}
	return view, nil
}

// GetMetadata returns the descriptor for id
func (c *Catalog) GetMetadata(id string) (Descriptor, error) {
	if !ValidID(id) {
		return Descriptor{}, newError(KindInvalidID, id, nil)
	}

	snapshot, err := c.current()
	if err != nil {
		return Descriptor{}, err
	}

	desc, ok := snapshot[id]
	if !ok {
		return Descriptor{}, newError(KindNotFound, id, nil)
	}
	return desc, nil
}

// Invalidate drops the whole snapshot; the next read rescans the root
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.stale = make(map[string]bool)
	c.logger.Debug().Msg("Tool catalog invalidated")
}

// InvalidateTool drops the cached descriptor for id; the next read
// re-describes only that tool
func (c *Catalog) InvalidateTool(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return
	}
	next := make(map[string]Descriptor, len(c.snapshot))
	for key, desc := range c.snapshot {
		if key != id {
			next[key] = desc
		}
	}
	c.snapshot = next
	c.stale[id] = true
}

// current returns the snapshot, scanning or refreshing stale entries first
func (c *Catalog) current() (map[string]Descriptor, error) {
	c.mu.RLock()
	if c.snapshot != nil && len(c.stale) == 0 {
		snapshot := c.snapshot
		c.mu.RUnlock()
		return snapshot, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil {
		tools, err := c.discovery.Scan(c.root)
		if err != nil {
			return nil, err
		}
		snapshot := make(map[string]Descriptor, len(tools))
		for _, desc := range tools {
			snapshot[desc.ID] = desc
		}
		c.snapshot = snapshot
		c.stale = make(map[string]bool)
		return c.snapshot, nil
	}

	if len(c.stale) > 0 {
		// snapshots handed out earlier are never mutated
		next := make(map[string]Descriptor, len(c.snapshot)+len(c.stale))
		for id, desc := range c.snapshot {
			next[id] = desc
		}
		for id := range c.stale {
			desc, err := c.discovery.Describe(c.root, id)
			if err != nil {
				continue
			}
			next[id] = desc
		}
		c.snapshot = next
		c.stale = make(map[string]bool)
	}
	return c.snapshot, nil
}

// ValidateStructure reports on the layout of a tool directory.
// It never fails; each field is checked on its own.
func (c *Catalog) ValidateStructure(id string) StructureReport {
	report := StructureReport{ValidID: ValidID(id)}

	// Ids that could escape the root are never touched on disk
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return report
	}

	layout := c.discovery.Layout()
	dir := filepath.Join(c.root, id)
	report.DirectoryExists = dirExists(dir)

	entryPath := filepath.Join(dir, layout.EntryPoint)
	report.EntryPointExists = fileExists(entryPath)
	report.MetadataExists = fileExists(filepath.Join(dir, layout.MetadataFile))

	if report.EntryPointExists {
		entry, err := ParseEntry(entryPath, EntryVars{
			ToolID:    id,
			ToolDir:   dir,
			ConfigDir: filepath.Join(dir, layout.ConfigDir),
		})
		report.HasEntryFunction = err == nil && entry.Declared()
	}
	return report
}

// IsNotFound reports whether err is a NotFound tool error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
