package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mintutil/mint/internal/tracing"
)

const tracerName = "github.com/mintutil/mint/pkg/tool"

// Observer receives lifecycle events from the runtime
type Observer interface {
	ToolLoaded(id, runtime string, duration time.Duration, err error)
	ToolRendered(id string, duration time.Duration, err error)
	ToolReloaded(id string)
}

type nopObserver struct{}

func (nopObserver) ToolLoaded(string, string, time.Duration, error) {}
func (nopObserver) ToolRendered(string, time.Duration, error)       {}
func (nopObserver) ToolReloaded(string)                             {}

// Runtime loads tools on demand, caches their handles and runs them
// behind an error boundary so a failing tool never takes the host down.
type Runtime struct {
	logger   zerolog.Logger
	catalog  *Catalog
	loader   *Loader
	cache    *HandleCache
	locks    keyedMutex
	observer Observer
}

// NewRuntime creates a runtime. catalog may be nil when descriptors are
// not cached by the caller; observer may be nil.
func NewRuntime(logger zerolog.Logger, catalog *Catalog, loader *Loader, observer Observer) *Runtime {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runtime{
		logger:   logger.With().Str("component", "tool-runtime").Logger(),
		catalog:  catalog,
		loader:   loader,
		cache:    NewHandleCache(),
		observer: observer,
	}
}

// Run loads id if needed and invokes its Render entry point
func (r *Runtime) Run(ctx context.Context, id string) RunResult {
	start := time.Now()
	if !ValidID(id) {
		return r.fail(id, start, newError(KindInvalidID, id, nil))
	}

	ctx = tracing.NewToolRunContext(ctx, id)
	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.run", attribute.String("tool.id", id))
	defer span.End()

	unlock := r.locks.Lock(id)
	defer unlock()

	result := r.run(ctx, id, start)
	if !result.OK {
		span.SetStatus(codes.Error, result.Message())
	}
	return result
}

// Load loads id without rendering it. A cached handle is reused.
func (r *Runtime) Load(ctx context.Context, id string) RunResult {
	start := time.Now()
	if !ValidID(id) {
		return r.fail(id, start, newError(KindInvalidID, id, nil))
	}

	unlock := r.locks.Lock(id)
	defer unlock()

	if _, terr := r.handle(ctx, id); terr != nil {
		return r.fail(id, start, terr)
	}
	return RunResult{ID: id, OK: true, State: r.cache.State(id), Duration: time.Since(start)}
}

// Reload evicts the cached handle and catalog entry for id, then runs it
// again from scratch so edited code and metadata take effect.
func (r *Runtime) Reload(ctx context.Context, id string) RunResult {
	start := time.Now()
	if !ValidID(id) {
		return r.fail(id, start, newError(KindInvalidID, id, nil))
	}

	ctx = tracing.NewToolRunContext(ctx, id)
	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.reload", attribute.String("tool.id", id))
	defer span.End()

	unlock := r.locks.Lock(id)
	defer unlock()

	if err := r.cache.Evict(id); err != nil {
		r.logger.Warn().Err(err).Str("id", id).Msg("Failed to close evicted tool")
	}
	r.cache.SetState(id, StateUnloaded)
	r.cache.RecordReload(id)
	if r.catalog != nil {
		r.catalog.InvalidateTool(id)
	}
	r.observer.ToolReloaded(id)
	r.logger.Info().Str("id", id).Msg("Tool reloaded")

	result := r.run(ctx, id, start)
	if !result.OK {
		span.SetStatus(codes.Error, result.Message())
	}
	return result
}

// State returns the lifecycle state of id
func (r *Runtime) State(id string) State {
	return r.cache.State(id)
}

// Handles lists the cached handles
func (r *Runtime) Handles() []HandleInfo {
	return r.cache.All()
}

// Shutdown closes every cached handle
func (r *Runtime) Shutdown() error {
	if err := r.cache.EvictAll(); err != nil {
		return fmt.Errorf("failed to shut down tools: %w", err)
	}
	return nil
}

// run does the work of Run; the per-id lock must be held
func (r *Runtime) run(ctx context.Context, id string, start time.Time) RunResult {
	handle, terr := r.handle(ctx, id)
	if terr != nil {
		return r.fail(id, start, terr)
	}

	logger := tracing.PropagateToLogger(ctx, r.logger)

	r.cache.SetState(id, StateRunning)
	r.cache.RecordRun(id)

	renderCtx, span := tracing.StartSpan(ctx, tracerName, "tool.render", attribute.String("tool.runtime", handle.Runtime))
	renderStart := time.Now()
	err := guard(func() error {
		return handle.Renderer.Render(renderCtx)
	})
	span.End()
	r.observer.ToolRendered(id, time.Since(renderStart), err)

	if err != nil {
		r.cache.SetState(id, StateRuntimeFailed)
		r.cache.RecordError(id, err)
		terr := newError(KindRuntimeFailed, id, err)
		logger.Error().Err(err).Str("id", id).Msg("Tool failed while running")
		return r.fail(id, start, terr)
	}

	r.cache.SetState(id, StateIdle)
	logger.Debug().Str("id", id).Dur("duration", time.Since(start)).Msg("Tool finished")
	return RunResult{ID: id, OK: true, State: StateIdle, Duration: time.Since(start)}
}

// handle returns the cached handle for id, loading it on a miss.
// The per-id lock must be held.
func (r *Runtime) handle(ctx context.Context, id string) (*Handle, *Error) {
	if handle, ok := r.cache.Get(id); ok {
		return handle, nil
	}

	r.cache.SetState(id, StateLoading)

	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.load", attribute.String("tool.id", id))
	defer span.End()

	start := time.Now()
	handle, err := r.loader.Load(ctx, id)
	if err != nil {
		terr, ok := AsError(err)
		if !ok {
			terr = loadError(id, StageInit, err)
		}
		r.observer.ToolLoaded(id, "", time.Since(start), terr)
		span.SetStatus(codes.Error, terr.Error())

		// a missing or invalid tool never left the unloaded state
		if terr.Kind == KindNotFound || terr.Kind == KindInvalidID {
			r.cache.SetState(id, StateUnloaded)
		} else {
			r.cache.SetState(id, StateLoadFailed)
		}
		r.logger.Warn().Err(terr).Str("id", id).Msg("Failed to load tool")
		return nil, terr
	}

	if err := r.cache.Put(handle); err != nil {
		// unreachable while the per-id lock is held
		return nil, loadError(id, StageInit, err)
	}
	r.cache.SetState(id, StateLoaded)
	r.observer.ToolLoaded(id, handle.Runtime, time.Since(start), nil)

	r.logger.Info().
		Str("id", id).
		Str("runtime", handle.Runtime).
		Msg("Tool loaded successfully")
	return handle, nil
}

func (r *Runtime) fail(id string, start time.Time, terr *Error) RunResult {
	if terr.Trace == "" {
		terr.Trace = traceOf(terr)
	}
	return RunResult{
		ID:       id,
		OK:       false,
		State:    r.cache.State(id),
		Err:      terr,
		Duration: time.Since(start),
	}
}
