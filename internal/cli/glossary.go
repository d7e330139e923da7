package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mintutil/mint/internal/transcript"
	"github.com/mintutil/mint/pkg/glossary"
	"github.com/mintutil/mint/pkg/tool"
)

var (
	glossaryTool string
	glossaryFile string
	glossaryJSON bool

	applyOutput string
	applyLog    string

	suggestThreshold float64
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage and apply a glossary of corrections",
	Long: `Manage a glossary mapping misheard terms to their correct spelling.

By default the glossary from the config is used; --tool selects the glossary
of a transcription tool and --file any glossary file.`,
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	Args:  cobra.NoArgs,
	RunE:  runGlossaryList,
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <incorrect> <correct>",
	Short: "Add or update an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runGlossaryAdd,
}

var glossaryRemoveCmd = &cobra.Command{
	Use:   "remove <incorrect>",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runGlossaryRemove,
}

var glossaryApplyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Correct a text file, or stdin, with the glossary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGlossaryApply,
}

var glossarySuggestCmd = &cobra.Command{
	Use:   "suggest [file]",
	Short: "Suggest entries for words that look like known terms",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGlossarySuggest,
}

func init() {
	glossaryCmd.PersistentFlags().StringVar(&glossaryTool, "tool", "", "use the glossary of this tool")
	glossaryCmd.PersistentFlags().StringVar(&glossaryFile, "file", "", "use this glossary file")

	glossaryListCmd.Flags().BoolVar(&glossaryJSON, "json", false, "print the glossary as JSON")
	glossaryApplyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "write the corrected text here instead of stdout")
	glossaryApplyCmd.Flags().StringVar(&applyLog, "log", "", "write the replacement log as JSON here")
	glossarySuggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", 0, "minimum similarity, 0 uses the configured value")

	glossaryCmd.AddCommand(glossaryListCmd, glossaryAddCmd, glossaryRemoveCmd, glossaryApplyCmd, glossarySuggestCmd)
	rootCmd.AddCommand(glossaryCmd)
}

// glossaryStore opens the glossary selected by --file, --tool or the config
func (a *app) glossaryStore() (*glossary.Store, error) {
	if glossaryFile != "" && glossaryTool != "" {
		return nil, errors.New("--file and --tool cannot be combined")
	}

	path := a.cfg.Glossary.Path
	switch {
	case glossaryFile != "":
		path = glossaryFile
	case glossaryTool != "":
		d, err := a.catalog.GetMetadata(glossaryTool)
		if err != nil {
			return nil, err
		}
		entry, err := tool.ParseEntry(d.EntryPath, tool.EntryVars{
			ToolID:    d.ID,
			ToolDir:   d.Dir,
			ConfigDir: filepath.Join(d.Dir, a.layout.ConfigDir),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read tool entry: %w", err)
		}
		path = transcript.GlossaryPath(entry)
	}

	a.logger.Debug().Str("path", path).Msg("Using glossary")
	return glossary.NewStore(a.logger, path), nil
}

func runGlossaryList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.glossaryStore()
	if err != nil {
		return err
	}
	g := store.Load()

	if glossaryJSON {
		return glossary.Encode(cmd.OutOrStdout(), g)
	}

	if g.Len() == 0 {
		a.ui.warn("Glossary %s is empty", store.Path())
		return nil
	}

	rows := make([][]string, 0, g.Len())
	for _, e := range g.Entries() {
		rows = append(rows, []string{e.Key, e.Value})
	}
	a.ui.table([]string{"INCORRECT", "CORRECT"}, rows)
	return nil
}

func runGlossaryAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.glossaryStore()
	if err != nil {
		return err
	}

	g, err := store.Add(args[0], args[1])
	a.audit.RecordGlossaryChange(cmd.Context(), "add", store.Path(), args[0], err)
	if err != nil {
		return err
	}
	a.ui.ok("Added %s → %s (%d entries)", args[0], args[1], g.Len())
	return nil
}

func runGlossaryRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.glossaryStore()
	if err != nil {
		return err
	}

	g, err := store.Remove(args[0])
	a.audit.RecordGlossaryChange(cmd.Context(), "remove", store.Path(), args[0], err)
	if err != nil {
		return fmt.Errorf("failed to remove %q: %w", args[0], err)
	}
	a.ui.ok("Removed %s (%d entries)", args[0], g.Len())
	return nil
}

func runGlossaryApply(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.glossaryStore()
	if err != nil {
		return err
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	corrected, records := glossary.Correct(text, store.Load())
	a.metrics.RecordReplacements(glossaryTool, len(records))

	if applyOutput != "" {
		if err := os.WriteFile(applyOutput, []byte(corrected), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if _, err := io.WriteString(cmd.OutOrStdout(), corrected); err != nil {
		return err
	}

	if applyLog != "" {
		if records == nil {
			records = []glossary.Replacement{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode replacement log: %w", err)
		}
		if err := os.WriteFile(applyLog, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write replacement log: %w", err)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d replacements\n", len(records))
	return nil
}

func runGlossarySuggest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.glossaryStore()
	if err != nil {
		return err
	}

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	threshold := suggestThreshold
	if threshold <= 0 {
		threshold = a.cfg.Glossary.SuggestThreshold
	}

	suggestions := glossary.Suggest(text, store.Load(), threshold)
	if len(suggestions) == 0 {
		a.ui.ok("No suggestions")
		return nil
	}

	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{s.Word, s.Canonical, fmt.Sprintf("%.2f", s.Confidence)})
	}
	a.ui.table([]string{"WORD", "SUGGESTION", "CONFIDENCE"}, rows)
	return nil
}

// readInput reads the file named by args[0], or stdin when it is absent or "-"
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
