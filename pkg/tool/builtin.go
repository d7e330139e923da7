package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Renderer is the entry point every tool must expose
type Renderer interface {
	Render(ctx context.Context) error
}

// RendererFunc adapts a plain function to Renderer
type RendererFunc func(ctx context.Context) error

// Render calls f(ctx)
func (f RendererFunc) Render(ctx context.Context) error {
	return f(ctx)
}

// Factory builds the unit behind a built-in handler. The returned value
// must implement Renderer; anything else is reported as a missing entry point.
type Factory func(ctx context.Context, entry *Entry) (any, error)

// Opener turns a decoded entry file into a renderer
type Opener interface {
	Open(ctx context.Context, entry *Entry) (Renderer, error)
}

// BuiltinOpener resolves handler names against factories compiled into the host
type BuiltinOpener struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewBuiltinOpener creates an empty builtin registry
func NewBuiltinOpener() *BuiltinOpener {
	return &BuiltinOpener{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name
func (b *BuiltinOpener) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("handler %s: factory cannot be nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.factories[name]; exists {
		return fmt.Errorf("handler %s already registered", name)
	}
	b.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error
func (b *BuiltinOpener) MustRegister(name string, factory Factory) {
	if err := b.Register(name, factory); err != nil {
		panic(err)
	}
}

// Names returns the registered handler names in sorted order
func (b *BuiltinOpener) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.factories))
	for name := range b.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a handler is registered
func (b *BuiltinOpener) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.factories[name]
	return ok
}

// Open runs the factory for entry.Handler inside a panic guard
func (b *BuiltinOpener) Open(ctx context.Context, entry *Entry) (Renderer, error) {
	b.mu.RLock()
	factory, ok := b.factories[entry.Handler]
	b.mu.RUnlock()
	if !ok {
		return nil, loadError(entry.ID, StageResolve, fmt.Errorf("unknown handler %q", entry.Handler))
	}

	var value any
	err := guard(func() error {
		v, err := factory(ctx, entry)
		value = v
		return err
	})
	if err != nil {
		return nil, loadError(entry.ID, StageInit, fmt.Errorf("handler %s: %w", entry.Handler, err))
	}

	renderer, ok := value.(Renderer)
	if !ok {
		return nil, newError(KindMissingEntryPoint, entry.ID, fmt.Errorf("handler %s returned %T, which has no Render method", entry.Handler, value))
	}
	return renderer, nil
}
