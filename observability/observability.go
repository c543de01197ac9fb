// Package observability wires OpenTelemetry tracing and Prometheus metrics
// for the runtime: tool execution spans/counters, permission decisions,
// shell lifecycle, and workflow step durations.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Metrics is the process-wide Prometheus registry of runtime counters and
// histograms.
type Metrics struct {
	ToolCalls           *prometheus.CounterVec
	ToolDuration        *prometheus.HistogramVec
	PermissionDecisions *prometheus.CounterVec
	ShellsActive        prometheus.Gauge
	WorkflowStepDuration *prometheus.HistogramVec
}

var global *Metrics

// NewMetrics builds and registers the runtime's metric families against
// registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_tool_calls_total",
			Help: "Total tool invocations by tool name and outcome.",
		}, []string{"tool", "success"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "forge_tool_duration_seconds",
			Help: "Tool execution latency by tool name.",
		}, []string{"tool"}),
		PermissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forge_permission_decisions_total",
			Help: "Permission decisions by level.",
		}, []string{"level"}),
		ShellsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forge_shells_active",
			Help: "Currently running background shells.",
		}),
		WorkflowStepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "forge_workflow_step_duration_seconds",
			Help: "Workflow step execution latency.",
		}, []string{"workflow", "step"}),
	}
	registry.MustRegister(m.ToolCalls, m.ToolDuration, m.PermissionDecisions, m.ShellsActive, m.WorkflowStepDuration)
	return m
}

// SetGlobalMetrics installs m as the process-wide metrics instance used by
// packages that can't take a constructor-injected dependency (tool.Execute
// is called from many call sites).
func SetGlobalMetrics(m *Metrics) { global = m }

// GlobalMetrics returns the installed metrics instance, or nil if none was
// set (recording becomes a no-op).
func GlobalMetrics() *Metrics { return global }

// ServeMetrics exposes registry on addr's /metrics path for Prometheus
// scraping. Runs until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("observability: metrics server: %w", err)
	}
	return nil
}

// TracerOptions configures InitTracer.
type TracerOptions struct {
	ServiceName string
	OTLPEndpoint string // empty: use a stdout exporter (dev mode)
}

// InitTracer installs a process-wide TracerProvider. With no OTLP endpoint
// configured, traces are written to stdout — useful for local development
// without a collector.
func InitTracer(ctx context.Context, opts TracerOptions) (func(context.Context) error, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(opts.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	if opts.OTLPEndpoint != "" {
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(opts.OTLPEndpoint), otlptracegrpc.WithInsecure())
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("observability: build exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
