package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintutil/mint/internal/tracing"
	"github.com/mintutil/mint/pkg/tool"
)

var (
	watchMetricsAddr string
	watchNoInitial   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [tool-id|pattern]...",
	Short: "Reload and run tools whenever their files change",
	Long: `Watch the tools directory and reload a tool after edits to its entry
point, metadata file or config directory. With arguments, only matching
tools are reloaded and they are run once at start.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().BoolVar(&runTrace, "trace", false, "print diagnostic traces for failures")
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial-run", false, "do not run the selected tools at start")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = tracing.NewCommandContext(ctx, cmd.Name())

	var selected map[string]bool
	if len(args) > 0 {
		ids, err := resolveToolIDs(a.catalog, args)
		if err != nil {
			return err
		}
		selected = make(map[string]bool, len(ids))
		for _, id := range ids {
			selected[id] = true
		}
		if !watchNoInitial {
			for _, res := range executeTools(ctx, a.runtime, ids, false, 1) {
				a.report(ctx, "run", res)
			}
		}
	}

	watcher, err := tool.NewWatcher(a.logger, tool.WatcherConfig{
		Root:     a.cfg.ToolsDir,
		Layout:   a.layout,
		Debounce: time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond,
		OnToolChanged: func(id string) error {
			if selected != nil && !selected[id] {
				return nil
			}
			res := a.runtime.Reload(ctx, id)
			a.report(ctx, "reload", res)
			if !res.OK {
				return errors.New(res.Message())
			}
			return nil
		},
		OnCatalogChanged: func() error {
			a.catalog.Invalidate()
			a.logger.Info().Msg("Tool catalog changed")
			return nil
		},
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	addr := watchMetricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}
	if addr != "" {
		srv := a.metricsServer(addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	a.ui.ok("Watching %s (Ctrl+C to stop)", a.cfg.ToolsDir)
	<-ctx.Done()
	a.logger.Info().Msg("Stopping watcher")
	return nil
}

// report prints the outcome of one run and records it in the audit log
func (a *app) report(ctx context.Context, action string, res tool.RunResult) {
	a.audit.RecordRun(ctx, action, res)

	if res.OK {
		a.ui.ok("%s finished in %s", res.ID, res.Duration.Round(time.Millisecond))
		return
	}
	a.ui.fail("%s", res.Message())
	if runTrace && res.Trace() != "" {
		a.ui.block(res.Trace())
	}
}

func (a *app) metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
