package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerEntry = `handler = "counter"` + "\n"

func TestDiscovery_Scan(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	discovery := NewDiscovery(logger, DefaultLayout())

	t.Run("finds tools with an entry point", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "alpha", handlerEntry, "")
		createTestTool(t, root, "beta", handlerEntry, "name: Beta Tool\n")

		found, err := discovery.Scan(root)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("skips invalid ids, hidden entries, files and bare directories", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "good_tool", handlerEntry, "")
		createTestTool(t, root, "bad-tool", handlerEntry, "")
		createTestTool(t, root, ".hidden", handlerEntry, "")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "no_entry"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "loose_file"), []byte("x"), 0644))

		found, err := discovery.Scan(root)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "good_tool", found[0].ID)
	})

	t.Run("missing root yields no tools", func(t *testing.T) {
		found, err := discovery.Scan(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("root that is a file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		_, err := discovery.Scan(path)
		assert.Error(t, err)
	})

	t.Run("malformed metadata does not hide the tool or its neighbours", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "broken", handlerEntry, "name: [unclosed")
		createTestTool(t, root, "fine", handlerEntry, "name: Fine\n")

		found, err := discovery.Scan(root)
		require.NoError(t, err)
		require.Len(t, found, 2)

		byID := map[string]Descriptor{}
		for _, d := range found {
			byID[d.ID] = d
		}
		assert.Equal(t, "Broken", byID["broken"].Name)
		assert.NotEmpty(t, byID["broken"].Warnings)
		assert.Equal(t, "Fine", byID["fine"].Name)
		assert.Empty(t, byID["fine"].Warnings)
	})

	t.Run("records optional paths", func(t *testing.T) {
		root := t.TempDir()
		dir := createTestTool(t, root, "with_config", handlerEntry, "name: X\n")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0755))
		createTestTool(t, root, "plain", handlerEntry, "")

		withConfig, err := discovery.Describe(root, "with_config")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, DefaultEntryPoint), withConfig.EntryPath)
		assert.Equal(t, filepath.Join(dir, DefaultMetadataFile), withConfig.MetadataPath)
		assert.Equal(t, filepath.Join(dir, "config"), withConfig.ConfigDir)

		plain, err := discovery.Describe(root, "plain")
		require.NoError(t, err)
		assert.Empty(t, plain.MetadataPath)
		assert.Empty(t, plain.ConfigDir)
	})
}

func TestCatalog_ListTools(t *testing.T) {
	t.Run("sorted by name case-insensitively with id tie-break", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "zeta", handlerEntry, "name: alpha\n")
		createTestTool(t, root, "beta", handlerEntry, "name: Bravo\n")
		createTestTool(t, root, "alpha", handlerEntry, "name: Alpha\n")
		createTestTool(t, root, "charlie", handlerEntry, "")

		catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())
		tools, err := catalog.ListTools()
		require.NoError(t, err)

		ids := make([]string, len(tools))
		for i, tool := range tools {
			ids[i] = tool.ID
		}
		assert.Equal(t, []string{"alpha", "zeta", "beta", "charlie"}, ids)
	})

	t.Run("defaults and declared overrides", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "my_tool", handlerEntry, "")
		createTestTool(t, root, "fancy", handlerEntry, "name: Fancy\nicon: \"✨\"\n")

		catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())
		tools, err := catalog.ListTools()
		require.NoError(t, err)
		require.Len(t, tools, 2)

		assert.Equal(t, "Fancy", tools[0].Name)
		assert.Equal(t, "✨", tools[0].Icon)
		assert.Equal(t, "fancy Tool", tools[0].Description)

		assert.Equal(t, "My Tool", tools[1].Name)
		assert.Equal(t, "my_tool Tool", tools[1].Description)
		assert.Equal(t, "🔧", tools[1].Icon)
		assert.Equal(t, "1.0.0", tools[1].Version)
	})

	t.Run("cached until invalidated", func(t *testing.T) {
		root := t.TempDir()
		createTestTool(t, root, "first", handlerEntry, "")

		catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())
		tools, err := catalog.ListTools()
		require.NoError(t, err)
		require.Len(t, tools, 1)

		createTestTool(t, root, "second", handlerEntry, "")
		tools, err = catalog.ListTools()
		require.NoError(t, err)
		assert.Len(t, tools, 1)

		catalog.Invalidate()
		tools, err = catalog.ListTools()
		require.NoError(t, err)
		assert.Len(t, tools, 2)
	})

	t.Run("invalidating one tool re-reads its metadata only", func(t *testing.T) {
		root := t.TempDir()
		dir := createTestTool(t, root, "edited", handlerEntry, "name: Before\n")
		createTestTool(t, root, "other", handlerEntry, "name: Other\n")

		catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())
		_, err := catalog.ListTools()
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultMetadataFile), []byte("name: After\n"), 0644))
		createTestTool(t, root, "newcomer", handlerEntry, "")

		catalog.InvalidateTool("edited")
		desc, err := catalog.GetMetadata("edited")
		require.NoError(t, err)
		assert.Equal(t, "After", desc.Name)

		lookup, err := catalog.Lookup()
		require.NoError(t, err)
		assert.Len(t, lookup, 2)
		assert.NotContains(t, lookup, "newcomer")
	})

	t.Run("invalidating a deleted tool drops it", func(t *testing.T) {
		root := t.TempDir()
		dir := createTestTool(t, root, "gone", handlerEntry, "")

		catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())
		_, err := catalog.ListTools()
		require.NoError(t, err)

		require.NoError(t, os.RemoveAll(dir))
		catalog.InvalidateTool("gone")

		tools, err := catalog.ListTools()
		require.NoError(t, err)
		assert.Empty(t, tools)
	})
}

func TestCatalog_GetMetadata(t *testing.T) {
	root := t.TempDir()
	createTestTool(t, root, "known", handlerEntry, "")
	catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())

	desc, err := catalog.GetMetadata("known")
	require.NoError(t, err)
	assert.Equal(t, "Known", desc.Name)

	_, err = catalog.GetMetadata("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	_, err = catalog.GetMetadata("../known")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCatalog_ValidateStructure(t *testing.T) {
	root := t.TempDir()
	catalog := NewCatalog(zerolog.Nop(), root, DefaultLayout())

	t.Run("complete tool", func(t *testing.T) {
		createTestTool(t, root, "complete", handlerEntry, "name: Complete\n")
		assert.Equal(t, StructureReport{
			DirectoryExists:  true,
			EntryPointExists: true,
			MetadataExists:   true,
			ValidID:          true,
			HasEntryFunction: true,
		}, catalog.ValidateStructure("complete"))
	})

	t.Run("directory without files", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
		assert.Equal(t, StructureReport{
			DirectoryExists: true,
			ValidID:         true,
		}, catalog.ValidateStructure("empty"))
	})

	t.Run("entry without handler or command", func(t *testing.T) {
		createTestTool(t, root, "inert", `settings = { a = 1 }`+"\n", "")
		report := catalog.ValidateStructure("inert")
		assert.True(t, report.EntryPointExists)
		assert.False(t, report.HasEntryFunction)
	})

	t.Run("entry with syntax error", func(t *testing.T) {
		createTestTool(t, root, "broken", `handler = `+"\n", "")
		report := catalog.ValidateStructure("broken")
		assert.True(t, report.EntryPointExists)
		assert.False(t, report.HasEntryFunction)
	})

	t.Run("invalid id is checked independently", func(t *testing.T) {
		createTestTool(t, root, "dash-ed", handlerEntry, "")
		report := catalog.ValidateStructure("dash-ed")
		assert.False(t, report.ValidID)
		assert.True(t, report.DirectoryExists)
		assert.True(t, report.HasEntryFunction)
	})

	t.Run("path escapes are never touched", func(t *testing.T) {
		assert.Equal(t, StructureReport{}, catalog.ValidateStructure("../outside"))
		assert.Equal(t, StructureReport{}, catalog.ValidateStructure(""))
	})

	t.Run("missing tool", func(t *testing.T) {
		assert.Equal(t, StructureReport{ValidID: true}, catalog.ValidateStructure("absent"))
	})
}
