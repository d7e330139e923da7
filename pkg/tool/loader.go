package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	runtimeBuiltin = "builtin"
	runtimeProcess = "process"
)

// Loader turns a tool directory into a Handle
type Loader struct {
	logger   zerolog.Logger
	root     string
	layout   Layout
	builtins *BuiltinOpener
	process  Opener
}

// NewLoader creates a loader for tools under root. A nil process
// opener disables tools that declare a command.
func NewLoader(logger zerolog.Logger, root string, layout Layout, builtins *BuiltinOpener, process Opener) *Loader {
	if builtins == nil {
		builtins = NewBuiltinOpener()
	}
	return &Loader{
		logger:   logger.With().Str("component", "tool-loader").Logger(),
		root:     root,
		layout:   layout.withDefaults(),
		builtins: builtins,
		process:  process,
	}
}

// Builtins returns the builtin handler registry
func (l *Loader) Builtins() *BuiltinOpener {
	return l.builtins
}

// Load reads the entry-point file for id and opens the unit it declares.
// Every error returned is a *Error.
func (l *Loader) Load(ctx context.Context, id string) (*Handle, error) {
	if !ValidID(id) {
		return nil, newError(KindInvalidID, id, nil)
	}

	dir := filepath.Join(l.root, id)
	entryPath := filepath.Join(dir, l.layout.EntryPoint)
	if info, err := os.Stat(entryPath); err != nil || info.IsDir() {
		return nil, newError(KindNotFound, id, fmt.Errorf("no %s in %s", l.layout.EntryPoint, dir))
	}

	entry, err := ParseEntry(entryPath, EntryVars{
		ToolID:    id,
		ToolDir:   dir,
		ConfigDir: filepath.Join(dir, l.layout.ConfigDir),
	})
	if err != nil {
		return nil, loadError(id, StageParse, err)
	}

	var (
		opener  Opener
		runtime string
	)
	switch {
	case entry.Handler != "" && entry.Command != "":
		return nil, loadError(id, StageResolve, fmt.Errorf("handler and command are mutually exclusive"))
	case entry.Handler != "":
		opener, runtime = l.builtins, runtimeBuiltin
	case entry.Command != "":
		if l.process == nil {
			return nil, loadError(id, StageResolve, fmt.Errorf("external tools are disabled"))
		}
		opener, runtime = l.process, runtimeProcess
	default:
		return nil, newError(KindMissingEntryPoint, id, fmt.Errorf("%s declares neither handler nor command", l.layout.EntryPoint))
	}

	var renderer Renderer
	err = guard(func() error {
		r, err := opener.Open(ctx, entry)
		renderer = r
		return err
	})
	if err != nil {
		if te, ok := AsError(err); ok {
			te.ID = id
			return nil, te
		}
		return nil, loadError(id, StageInit, err)
	}
	if renderer == nil {
		return nil, newError(KindMissingEntryPoint, id, fmt.Errorf("%s opener returned no renderer", runtime))
	}

	l.logger.Debug().
		Str("id", id).
		Str("runtime", runtime).
		Msg("Tool loaded")

	return &Handle{
		ID:       id,
		Entry:    entry,
		Renderer: renderer,
		Runtime:  runtime,
	}, nil
}
