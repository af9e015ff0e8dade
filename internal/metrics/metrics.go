// ============================================================================
// Task Graph Pool Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose scheduler metrics for Prometheus monitoring
//
// Metric Categories:
//
//   1. Counters - cumulative, monotonically increasing:
//      - pool_tasks_scheduled_total: Total tasks handed to Schedule
//      - pool_tasks_completed_total: Total tasks that reached COMPLETED
//      - pool_tasks_failed_total: Total tasks whose work item panicked
//        (contained WorkItemFailure, still counted as completed too)
//
//   2. Histograms - distribution stats:
//      - pool_task_ready_wait_seconds: time between DEPENDENCIES_COMPLETED
//        and a worker picking the task up
//      - pool_task_execution_seconds: time spent inside the work item
//
//   3. Gauges - instantaneous values:
//      - pool_ready_queue_depth: current length of the ready FIFO
//      - pool_not_ready_count: current size of the not-ready index
//      - pool_workers_busy: workers currently executing a task
//
// Unlike the original job-queue collector, each Collector registers against
// its own prometheus.Registry rather than the global DefaultRegisterer, so a
// process (or a test) can safely construct more than one ThreadPool.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for a single ThreadPool.
type Collector struct {
	registry *prometheus.Registry

	tasksScheduled prometheus.Counter
	tasksCompleted prometheus.Counter
	tasksFailed    prometheus.Counter

	readyWait prometheus.Histogram
	execution prometheus.Histogram

	readyDepth    prometheus.Gauge
	notReadyCount prometheus.Gauge
	workersBusy   prometheus.Gauge
}

// NewCollector creates a new metrics collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		tasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_scheduled_total",
			Help: "Total number of tasks handed to Schedule",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_completed_total",
			Help: "Total number of tasks that reached COMPLETED",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_tasks_failed_total",
			Help: "Total number of tasks whose work item panicked (contained)",
		}),
		readyWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_task_ready_wait_seconds",
			Help:    "Time a task spent in the ready queue before a worker picked it up",
			Buckets: prometheus.DefBuckets,
		}),
		execution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pool_task_execution_seconds",
			Help:    "Time spent inside a task's work item",
			Buckets: prometheus.DefBuckets,
		}),
		readyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_ready_queue_depth",
			Help: "Current number of tasks in the ready queue",
		}),
		notReadyCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_not_ready_count",
			Help: "Current number of tasks awaiting dependencies",
		}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pool_workers_busy",
			Help: "Current number of workers executing a task",
		}),
	}

	registry.MustRegister(
		c.tasksScheduled,
		c.tasksCompleted,
		c.tasksFailed,
		c.readyWait,
		c.execution,
		c.readyDepth,
		c.notReadyCount,
		c.workersBusy,
	)

	return c
}

// IncScheduled records a task handed to Schedule.
func (c *Collector) IncScheduled() {
	c.tasksScheduled.Inc()
}

// IncCompleted records a task reaching COMPLETED.
func (c *Collector) IncCompleted() {
	c.tasksCompleted.Inc()
}

// IncFailed records a contained WorkItemFailure.
func (c *Collector) IncFailed() {
	c.tasksFailed.Inc()
}

// ObserveReadyWait records how long a task waited in the ready queue.
func (c *Collector) ObserveReadyWait(seconds float64) {
	c.readyWait.Observe(seconds)
}

// ObserveExecution records how long a work item took to run.
func (c *Collector) ObserveExecution(seconds float64) {
	c.execution.Observe(seconds)
}

// SetReadyDepth sets the current ready queue length.
func (c *Collector) SetReadyDepth(n int) {
	c.readyDepth.Set(float64(n))
}

// SetNotReadyCount sets the current not-ready index size.
func (c *Collector) SetNotReadyCount(n int) {
	c.notReadyCount.Set(float64(n))
}

// IncWorkersBusy marks one more worker as executing a task.
func (c *Collector) IncWorkersBusy() {
	c.workersBusy.Inc()
}

// DecWorkersBusy marks one fewer worker as executing a task.
func (c *Collector) DecWorkersBusy() {
	c.workersBusy.Dec()
}

// Handler returns the HTTP handler serving this Collector's metrics in
// Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer starts an HTTP server exposing this Collector on /metrics.
func (c *Collector) StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
