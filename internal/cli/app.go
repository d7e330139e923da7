package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mintutil/mint/internal/config"
	"github.com/mintutil/mint/internal/logger"
	"github.com/mintutil/mint/internal/metrics"
	"github.com/mintutil/mint/internal/observability"
	"github.com/mintutil/mint/internal/tracing"
	"github.com/mintutil/mint/internal/transcript"
	"github.com/mintutil/mint/pkg/tool"
)

// app wires the configured components for one command invocation
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	logger  zerolog.Logger
	metrics *metrics.Metrics
	audit   *observability.AuditLogger
	layout  tool.Layout
	catalog *tool.Catalog
	runtime *tool.Runtime
	ui      *renderer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if toolsDir != "" {
		cfg.ToolsDir = toolsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty && isTerminal(stderr),
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Output:    stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zl := log.Zerolog()

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
		}); err != nil {
			zl.Warn().Err(err).Msg("Failed to initialize tracing")
		}
	}

	m := metrics.NewMetrics()

	audit := observability.NopAuditLogger()
	if cfg.Audit.Enabled {
		if audit, err = observability.OpenAuditLog(cfg.Audit.File); err != nil {
			log.Close()
			return nil, err
		}
	}

	layout := tool.Layout{
		EntryPoint:   cfg.Tools.EntryPoint,
		MetadataFile: cfg.Tools.MetadataFile,
		ConfigDir:    cfg.Tools.ConfigDir,
	}

	builtins := tool.NewBuiltinOpener()
	if err := transcript.Register(builtins,
		transcript.WithLogger(zl),
		transcript.WithRecorder(m),
	); err != nil {
		audit.Close()
		log.Close()
		return nil, fmt.Errorf("failed to register builtin tools: %w", err)
	}

	catalog := tool.NewCatalog(zl, cfg.ToolsDir, layout)
	loader := tool.NewLoader(zl, cfg.ToolsDir, layout, builtins, tool.NewProcessOpener(zl))

	return &app{
		cfg:     cfg,
		log:     log,
		logger:  zl,
		metrics: m,
		audit:   audit,
		layout:  layout,
		catalog: catalog,
		runtime: tool.NewRuntime(zl, catalog, loader, m),
		ui:      newRenderer(cmd.OutOrStdout(), noColor),
	}, nil
}

// close releases tool handles and flushes telemetry
func (a *app) close() {
	if err := a.runtime.Shutdown(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to shut down tools")
	}

	if a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if a.cfg.Tracing.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to flush traces")
		}
	}

	if err := a.audit.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close audit log")
	}

	a.log.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
