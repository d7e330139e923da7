package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintutil/mint/pkg/tool"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the Prometheus collectors for tool and glossary activity.
// It implements tool.Observer and the transcript replacement recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Tool lifecycle
	ToolLoadsTotal      *prometheus.CounterVec
	ToolLoadDuration    *prometheus.HistogramVec
	ToolRendersTotal    *prometheus.CounterVec
	ToolRenderDuration  *prometheus.HistogramVec
	ToolReloadsTotal    *prometheus.CounterVec
	ToolLoadErrorsTotal *prometheus.CounterVec

	// Glossary
	GlossaryReplacementsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ToolLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_tool_loads_total",
				Help: "Total number of tool loads",
			},
			[]string{"tool_id", "runtime", "status"},
		),
		ToolLoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mint_tool_load_duration_seconds",
				Help:    "Duration of tool loads in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_id"},
		),
		ToolLoadErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_tool_load_errors_total",
				Help: "Total number of failed tool loads by error kind",
			},
			[]string{"tool_id", "kind"},
		),
		ToolRendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_tool_renders_total",
				Help: "Total number of tool render calls",
			},
			[]string{"tool_id", "status"},
		),
		ToolRenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mint_tool_render_duration_seconds",
				Help:    "Duration of tool render calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_id"},
		),
		ToolReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_tool_reloads_total",
				Help: "Total number of explicit tool reloads",
			},
			[]string{"tool_id"},
		),
		GlossaryReplacementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_glossary_replacements_total",
				Help: "Total number of glossary replacements applied",
			},
			[]string{"tool_id"},
		),
	}

	m.registry.MustRegister(
		m.ToolLoadsTotal,
		m.ToolLoadDuration,
		m.ToolLoadErrorsTotal,
		m.ToolRendersTotal,
		m.ToolRenderDuration,
		m.ToolReloadsTotal,
		m.GlossaryReplacementsTotal,
	)

	return m
}

// ToolLoaded records a load attempt
func (m *Metrics) ToolLoaded(id, runtime string, duration time.Duration, err error) {
	m.ToolLoadDuration.WithLabelValues(id).Observe(duration.Seconds())
	if err != nil {
		m.ToolLoadsTotal.WithLabelValues(id, runtime, statusError).Inc()
		m.ToolLoadErrorsTotal.WithLabelValues(id, errorKind(err)).Inc()
		return
	}
	m.ToolLoadsTotal.WithLabelValues(id, runtime, statusSuccess).Inc()
}

// ToolRendered records a render call
func (m *Metrics) ToolRendered(id string, duration time.Duration, err error) {
	m.ToolRenderDuration.WithLabelValues(id).Observe(duration.Seconds())
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	m.ToolRendersTotal.WithLabelValues(id, status).Inc()
}

// ToolReloaded records an explicit reload
func (m *Metrics) ToolReloaded(id string) {
	m.ToolReloadsTotal.WithLabelValues(id).Inc()
}

// RecordReplacements adds count glossary replacements for toolID
func (m *Metrics) RecordReplacements(toolID string, count int) {
	if count <= 0 {
		return
	}
	m.GlossaryReplacementsTotal.WithLabelValues(toolID).Add(float64(count))
}

func errorKind(err error) string {
	if terr, ok := tool.AsError(err); ok {
		return string(terr.Kind)
	}
	return "unknown"
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// WriteTextfile writes the current values in the text exposition format,
// for collection by a node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ tool.Observer = (*Metrics)(nil)
