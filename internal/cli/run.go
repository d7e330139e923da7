package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mintutil/mint/internal/tracing"
	"github.com/mintutil/mint/pkg/tool"
)

var (
	runReload   bool
	runTrace    bool
	runParallel int
)

var runCmd = &cobra.Command{
	Use:   "run <tool-id|pattern>...",
	Short: "Run tools",
	Long: `Load each tool on first use and call its render entry point.

Arguments may be glob patterns matched against tool ids, e.g. 'meeting_*'.
Failures are reported per tool; diagnostic traces are only shown with --trace.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools(cmd, args, runReload)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload <tool-id|pattern>...",
	Short: "Reload tools from disk and run them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTools(cmd, args, true)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runReload, "reload", false, "drop cached state and reload before running")
	for _, c := range []*cobra.Command{runCmd, reloadCmd} {
		c.Flags().BoolVar(&runTrace, "trace", false, "print diagnostic traces for failures")
		c.Flags().IntVarP(&runParallel, "parallel", "p", 1, "number of tools to run at once")
	}

	rootCmd.AddCommand(runCmd, reloadCmd)
}

func runTools(cmd *cobra.Command, args []string, reload bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ids, err := resolveToolIDs(a.catalog, args)
	if err != nil {
		return err
	}

	ctx := tracing.NewCommandContext(cmd.Context(), cmd.Name())
	results := executeTools(ctx, a.runtime, ids, reload, runParallel)

	action := "run"
	if reload {
		action = "reload"
	}

	failed := 0
	for _, res := range results {
		a.report(ctx, action, res)
		if !res.OK {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed", failed, len(results))
	}
	return nil
}

// executeTools runs ids with at most parallel tools in flight and returns
// the results in the order of ids
func executeTools(ctx context.Context, runtime *tool.Runtime, ids []string, reload bool, parallel int) []tool.RunResult {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]tool.RunResult, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, id := range ids {
		g.Go(func() error {
			if reload {
				results[i] = runtime.Reload(ctx, id)
			} else {
				results[i] = runtime.Run(ctx, id)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// resolveToolIDs expands glob patterns against the catalog. Plain
// arguments are passed through unchanged so the runtime can report
// invalid or unknown ids itself.
func resolveToolIDs(catalog *tool.Catalog, args []string) ([]string, error) {
	var (
		ids  []string
		seen = map[string]bool{}
	)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var known []tool.Descriptor
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}

		if !doublestar.ValidatePattern(arg) {
			return nil, fmt.Errorf("invalid pattern %q", arg)
		}
		if known == nil {
			var err error
			if known, err = catalog.ListTools(); err != nil {
				return nil, fmt.Errorf("failed to list tools: %w", err)
			}
		}

		matched := false
		for _, d := range known {
			if ok, _ := doublestar.Match(arg, d.ID); ok {
				add(d.ID)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("no tools match %q", arg)
		}
	}
	return ids, nil
}
