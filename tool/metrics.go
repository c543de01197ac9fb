package tool

import (
	"strconv"
	"time"

	"github.com/forgecode/forge/observability"
)

// recordMetrics updates the global Prometheus metrics for a completed tool
// call, mirroring the prior ExecuteTool span+metrics pattern in
// pkg/tools/registry.go. A no-op when no global Metrics is installed.
func recordMetrics(toolName string, success bool, duration time.Duration) {
	m := observability.GlobalMetrics()
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(toolName, strconv.FormatBool(success)).Inc()
	m.ToolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}
