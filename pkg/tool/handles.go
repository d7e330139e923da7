package tool

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Handle is a loaded tool ready to render
type Handle struct {
	ID       string
	Entry    *Entry
	Renderer Renderer
	Runtime  string // "builtin" or "process"
}

// handleRecord tracks a cached handle and its history
type handleRecord struct {
	handle     *Handle
	loadedAt   time.Time
	runCount   int
	errorCount int
	lastError  error
}

// HandleCache tracks loaded tools and per-id lifecycle state
type HandleCache struct {
	records map[string]*handleRecord
	states  map[string]State
	reloads map[string]time.Time
	mu      sync.RWMutex
}

// NewHandleCache creates an empty handle cache
func NewHandleCache() *HandleCache {
	return &HandleCache{
		records: make(map[string]*handleRecord),
		states:  make(map[string]State),
		reloads: make(map[string]time.Time),
	}
}

// Put caches a freshly loaded handle
func (c *HandleCache) Put(handle *Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[handle.ID]; exists {
		return fmt.Errorf("tool %s already loaded", handle.ID)
	}

	c.records[handle.ID] = &handleRecord{
		handle:   handle,
		loadedAt: time.Now(),
	}
	return nil
}

// Get retrieves a cached handle by id
func (c *HandleCache) Get(id string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, exists := c.records[id]
	if !exists {
		return nil, false
	}
	return record.handle, true
}

// Evict removes a handle and closes it when it owns resources
func (c *HandleCache) Evict(id string) error {
	c.mu.Lock()
	record, exists := c.records[id]
	delete(c.records, id)
	c.mu.Unlock()

	if !exists {
		return nil
	}
	return closeHandle(record.handle)
}

// EvictAll removes every handle, closing them in id order
func (c *HandleCache) EvictAll() error {
	c.mu.Lock()
	records := c.records
	c.records = make(map[string]*handleRecord)
	c.mu.Unlock()

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var firstErr error
	for _, id := range ids {
		if err := closeHandle(records[id].handle); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close tool %s: %w", id, err)
		}
	}
	return firstErr
}

func closeHandle(h *Handle) error {
	if closer, ok := h.Renderer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SetState records the lifecycle state for id
func (c *HandleCache) SetState(id string, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[id] = state
}

// State returns the lifecycle state for id; unknown ids are unloaded
func (c *HandleCache) State(id string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if state, ok := c.states[id]; ok {
		return state
	}
	return StateUnloaded
}

// RecordRun counts a render call
func (c *HandleCache) RecordRun(id string) {
	c.update(id, func(record *handleRecord) {
		record.runCount++
	})
}

// RecordError records an error for a cached handle
func (c *HandleCache) RecordError(id string, err error) {
	c.update(id, func(record *handleRecord) {
		record.errorCount++
		record.lastError = err
	})
}

// RecordReload records a reload of id
func (c *HandleCache) RecordReload(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloads[id] = time.Now()
}

func (c *HandleCache) update(id string, updater func(*handleRecord)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if record, exists := c.records[id]; exists {
		updater(record)
	}
}

// All returns a snapshot of every cached handle, sorted by id
func (c *HandleCache) All() []HandleInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]HandleInfo, 0, len(c.records))
	for id, record := range c.records {
		info := HandleInfo{
			ID:         id,
			State:      c.stateLocked(id),
			Runtime:    record.handle.Runtime,
			LoadedAt:   record.loadedAt,
			RunCount:   record.runCount,
			ErrorCount: record.errorCount,
			LastError:  record.lastError,
		}
		if reloaded, ok := c.reloads[id]; ok {
			at := reloaded
			info.LastReloadAt = &at
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (c *HandleCache) stateLocked(id string) State {
	if state, ok := c.states[id]; ok {
		return state
	}
	return StateUnloaded
}

// keyedMutex serializes work per key while letting different keys proceed.
// Entries are dropped once no caller holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
