package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mintutil/mint/internal/transcript"
	"github.com/mintutil/mint/pkg/tool"
)

var (
	toolsJSON bool

	newToolName        string
	newToolDescription string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tools directory",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered tools",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

var toolsInfoCmd = &cobra.Command{
	Use:   "info <tool-id>",
	Short: "Show a tool's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsInfo,
}

var toolsValidateCmd = &cobra.Command{
	Use:   "validate <tool-id>...",
	Short: "Check the directory layout of tools",
	Long: `Check that each tool has a valid id, a directory, an entry-point file
and a declared handler or command. A metadata file is optional.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runToolsValidate,
}

var toolsNewCmd = &cobra.Command{
	Use:   "new <tool-id>",
	Short: "Create a transcription tool skeleton",
	Args:  cobra.ExactArgs(1),
	RunE:  runToolsNew,
}

func init() {
	toolsListCmd.Flags().BoolVar(&toolsJSON, "json", false, "print JSON")
	toolsInfoCmd.Flags().BoolVar(&toolsJSON, "json", false, "print JSON")
	toolsValidateCmd.Flags().BoolVar(&toolsJSON, "json", false, "print JSON")

	toolsNewCmd.Flags().StringVar(&newToolName, "name", "", "display name")
	toolsNewCmd.Flags().StringVar(&newToolDescription, "description", "", "short description")

	toolsCmd.AddCommand(toolsListCmd, toolsInfoCmd, toolsValidateCmd, toolsNewCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tools, err := a.catalog.ListTools()
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	if toolsJSON {
		return writeJSON(cmd, tools)
	}

	if len(tools) == 0 {
		a.ui.warn("No tools found in %s", a.cfg.ToolsDir)
		return nil
	}

	rows := make([][]string, 0, len(tools))
	for _, d := range tools {
		rows = append(rows, []string{d.Icon + " " + d.Name, d.ID, d.Version, d.Description})
	}
	a.ui.table([]string{"NAME", "ID", "VERSION", "DESCRIPTION"}, rows)

	for _, d := range tools {
		for _, w := range d.Warnings {
			a.ui.warn("%s: %s", d.ID, w)
		}
	}
	return nil
}

func runToolsInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.catalog.GetMetadata(args[0])
	if err != nil {
		return err
	}

	if toolsJSON {
		return writeJSON(cmd, d)
	}

	a.ui.heading(d.Icon + " " + d.Name)
	a.ui.field("ID", d.ID)
	a.ui.field("Description", d.Description)
	a.ui.field("Version", d.Version)
	a.ui.field("Author", d.Author)
	a.ui.field("Directory", d.Dir)
	a.ui.field("Entry", d.EntryPath)
	a.ui.field("Metadata", d.MetadataPath)
	a.ui.field("Config", d.ConfigDir)
	for _, w := range d.Warnings {
		a.ui.warn("%s", w)
	}
	return nil
}

func runToolsValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	reports := make(map[string]tool.StructureReport, len(args))
	invalid := 0
	for _, id := range args {
		report := a.catalog.ValidateStructure(id)
		reports[id] = report
		if !structureValid(report) {
			invalid++
		}
	}

	if toolsJSON {
		if err := writeJSON(cmd, reports); err != nil {
			return err
		}
	} else {
		for _, id := range args {
			report := reports[id]
			a.ui.heading(id)
			a.ui.check(report.ValidID, "valid id")
			a.ui.check(report.DirectoryExists, "directory exists")
			a.ui.check(report.EntryPointExists, a.layout.EntryPoint+" exists")
			a.ui.check(report.HasEntryFunction, "handler or command declared")
			if report.MetadataExists {
				a.ui.ok("%s exists", a.layout.MetadataFile)
			} else {
				a.ui.warn("%s missing, defaults will be used", a.layout.MetadataFile)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d tools failed validation", invalid, len(args))
	}
	return nil
}

func structureValid(r tool.StructureReport) bool {
	return r.ValidID && r.DirectoryExists && r.EntryPointExists && r.HasEntryFunction
}

func runToolsNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	id := args[0]
	if !tool.ValidID(id) {
		return fmt.Errorf("%w: %q", tool.ErrInvalidID, id)
	}

	dir := filepath.Join(a.cfg.ToolsDir, id)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("tool %q already exists at %s", id, dir)
	}

	for _, sub := range []string{a.layout.ConfigDir, filepath.Join("data", "raw"), filepath.Join("data", "fixed")} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("failed to create tool directory: %w", err)
		}
	}

	entry := fmt.Sprintf("handler = %q\n\nsettings = {\n  glossary = \"%s/glossary.json\"\n}\n", transcript.HandlerName, a.layout.ConfigDir)
	if err := os.WriteFile(filepath.Join(dir, a.layout.EntryPoint), []byte(entry), 0644); err != nil {
		return fmt.Errorf("failed to write entry point: %w", err)
	}

	name := newToolName
	if name == "" {
		name = tool.DefaultName(id)
	}
	fields := map[string]string{
		"name":    name,
		"version": tool.DefaultVersion,
	}
	if newToolDescription != "" {
		fields["description"] = newToolDescription
	}
	meta, err := yaml.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, a.layout.MetadataFile), meta, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, a.layout.ConfigDir, "glossary.json"), []byte("{}\n"), 0644); err != nil {
		return fmt.Errorf("failed to write glossary: %w", err)
	}

	a.ui.ok("Created %s in %s", id, dir)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
