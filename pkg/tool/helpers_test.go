package tool

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// createTestTool creates <root>/<id> with the given entry and metadata.
// An empty meta skips the metadata file.
func createTestTool(t *testing.T, root, id, entry, meta string) string {
	t.Helper()

	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEntryPoint), []byte(entry), 0644))
	if meta != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultMetadataFile), []byte(meta), 0644))
	}
	return dir
}

// counterTool counts renders and remembers the settings it was built with
type counterTool struct {
	settings map[string]any
	renders  *atomic.Int32
	closed   *atomic.Bool
}

func (c *counterTool) Render(ctx context.Context) error {
	c.renders.Add(1)
	return nil
}

func (c *counterTool) Close() error {
	c.closed.Store(true)
	return nil
}

// testEnv wires a runtime over a temp tools root
type testEnv struct {
	root     string
	builtins *BuiltinOpener
	catalog  *Catalog
	runtime  *Runtime
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	root := t.TempDir()
	builtins := NewBuiltinOpener()
	catalog := NewCatalog(logger, root, DefaultLayout())
	loader := NewLoader(logger, root, DefaultLayout(), builtins, NewProcessOpener(logger))

	return &testEnv{
		root:     root,
		builtins: builtins,
		catalog:  catalog,
		runtime:  NewRuntime(logger, catalog, loader, nil),
	}
}
