// Package metrics holds the Prometheus collectors shared by the recording engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "sensorlens"
)

func FQName(subsystem, name string) string {
	return prometheus.BuildFQName(Namespace, subsystem, name)
}

// Accumulator metrics, labelled by accumulator name.
var (
	RowsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("accumulator", "rows_appended_total"),
			Help: "Rows appended to an accumulator table.",
		},
		[]string{"accumulator"},
	)
	RowsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("accumulator", "rows_evicted_total"),
			Help: "Rows evicted from an accumulator table by its window bound.",
		},
		[]string{"accumulator"},
	)
	ProduceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("accumulator", "produce_errors_total"),
			Help: "Polls whose supplier failed to produce an event.",
		},
		[]string{"accumulator"},
	)
	Recording = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("accumulator", "recording"),
			Help: "1 while an accumulator is recording, 0 otherwise.",
		},
		[]string{"accumulator"},
	)
	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("accumulator", "table_rows"),
			Help: "Rows currently held by an accumulator table.",
		},
		[]string{"accumulator"},
	)
)

// Scheduler metrics.
var (
	ScheduledTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: FQName("scheduler", "tasks"),
			Help: "Repeating tasks currently scheduled.",
		},
	)
	TaskPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("scheduler", "task_panics_total"),
			Help: "Task runs that panicked and were recovered.",
		},
		[]string{"task"},
	)
)

// Export and reporting metrics.
var (
	ArchivesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: FQName("export", "archives_written_total"),
			Help: "Snapshot archives written to disk.",
		},
	)
	RowsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("export", "rows_total"),
			Help: "Rows written to snapshot archives.",
		},
		[]string{"table"},
	)
	ColumnMean = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("report", "column_mean"),
			Help: "Mean of a table column over the last exported snapshot.",
		},
		[]string{"table", "column"},
	)
	ColumnStdDev = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("report", "column_stddev"),
			Help: "Standard deviation of a table column over the last exported snapshot.",
		},
		[]string{"table", "column"},
	)
	ColumnNullRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("report", "column_null_rate"),
			Help: "Share of Null cells in a table column over the last exported snapshot.",
		},
		[]string{"table", "column"},
	)
)
