// Package metrics exposes Prometheus gauges and counters for the
// Queue Manager and Worker Runtime, scraped from the HTTP front-end's
// /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	QueueWaiting = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vidforge_queue_waiting_jobs",
		Help: "Number of jobs currently waiting in the ready queue.",
	})

	QueueActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vidforge_queue_active_jobs",
		Help: "Number of jobs currently leased by a worker.",
	})

	WorkerCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vidforge_worker_count",
		Help: "Number of workers currently registered with the queue manager.",
	})

	JobsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidforge_jobs_processed_total",
		Help: "Total number of jobs that reached the completed status.",
	})

	JobsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vidforge_jobs_failed_total",
		Help: "Total number of jobs removed from the active set as failed, including cancellations and shutdown re-queues.",
	})

	ProviderAdapterLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidforge_provider_adapter_latency_seconds",
		Help:    "Latency of provider adapter calls by provider and operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})
)

func init() {
	prometheus.MustRegister(QueueWaiting, QueueActive, WorkerCount, JobsProcessedTotal, JobsFailedTotal, ProviderAdapterLatency)
}
