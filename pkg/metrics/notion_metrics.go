// Package metrics provides Prometheus metrics for monitoring devreport components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Notion tool-call metrics
var (
	// toolCallTotal records the total number of remote Notion tool invocations.
	// Labels:
	//   - tool: Tool name (e.g., "API-post-page", "API-post-database-query")
	//   - status: Call status (e.g., "success", "failed")
	toolCallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notion_tool_calls_total",
			Help: "Total number of Notion tool invocations",
		},
		[]string{"tool", "status"},
	)

	// toolCallDuration records the duration of remote Notion tool invocations.
	// Labels:
	//   - tool: Tool name (e.g., "API-post-page")
	// Buckets: 0.05s .. 30s
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notion_tool_call_duration_seconds",
			Help:    "Duration of Notion tool invocations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool"},
	)

	// reportRunTotal records report orchestration runs.
	// Labels:
	//   - operation: "weekly" or "daily"
	//   - status: "success" or "failed"
	reportRunTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_runs_total",
			Help: "Total number of report orchestration runs",
		},
		[]string{"operation", "status"},
	)
)

func init() {
	// Register all report-related metrics with Prometheus
	prometheus.MustRegister(toolCallTotal)
	prometheus.MustRegister(toolCallDuration)
	prometheus.MustRegister(reportRunTotal)
}

// RecordToolCall records a remote tool invocation event.
func RecordToolCall(tool, status string) {
	toolCallTotal.WithLabelValues(tool, status).Inc()
}

// RecordToolCallDuration records the duration of a remote tool invocation.
func RecordToolCallDuration(tool string, durationSeconds float64) {
	toolCallDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordReportRun records one orchestration run outcome.
// operation: "weekly" or "daily"
// status: "success" or "failed"
func RecordReportRun(operation, status string) {
	reportRunTotal.WithLabelValues(operation, status).Inc()
}
