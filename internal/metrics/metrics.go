// Package metrics registers the controller's Prometheus collectors.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	core "flowcore/internal/core/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds FlowCore's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	triggerCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "scheduler",
			Name:      "triggers_total",
			Help:      "Total number of component triggers dispatched by a scheduling agent.",
		},
		[]string{"component_id", "strategy", "outcome"},
	)

	triggerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowcore",
			Subsystem: "scheduler",
			Name:      "trigger_duration_seconds",
			Help:      "Duration of a single component trigger.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"component_id", "strategy"},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flowcore",
			Subsystem: "queue",
			Name:      "object_count",
			Help:      "Current number of flow-file records queued on a connection.",
		},
		[]string{"connection_id"},
	)

	queueBackPressure = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flowcore",
			Subsystem: "queue",
			Name:      "back_pressure_active",
			Help:      "1 when a connection's queue is signalling back-pressure, else 0.",
		},
		[]string{"connection_id"},
	)

	workerPoolUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flowcore",
			Subsystem: "workerpool",
			Name:      "active_workers",
			Help:      "Active worker goroutines in a scheduling pool.",
		},
		[]string{"pool"},
	)

	heartbeatSendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flowcore",
			Subsystem: "heartbeat",
			Name:      "send_duration_seconds",
			Help:      "Duration of transmitting a heartbeat message.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	heartbeatDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "flowcore",
			Subsystem: "heartbeat",
			Name:      "overwritten_total",
			Help:      "Generated heartbeat snapshots overwritten before being sent.",
		},
	)

	statusAggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flowcore",
			Subsystem: "status",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of one status-aggregation pass over the group tree.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
	)

	observationCollectors sync.Map
)

func init() {
	Registry.MustRegister(
		triggerCount,
		triggerDuration,
		queueDepth,
		queueBackPressure,
		workerPoolUtilization,
		heartbeatSendDuration,
		heartbeatDropped,
		statusAggregationDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
// The controller does not itself serve HTTP (out of scope per spec.md §1);
// a host process mounts this at its own /metrics path.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordTrigger records the outcome and duration of a single component trigger.
func RecordTrigger(componentID, strategy, outcome string, duration time.Duration) {
	triggerCount.WithLabelValues(componentID, strategy, outcome).Inc()
	if duration > 0 {
		triggerDuration.WithLabelValues(componentID, strategy).Observe(duration.Seconds())
	}
}

// SetQueueDepth publishes a connection's current queued object count.
func SetQueueDepth(connectionID string, count int) {
	queueDepth.WithLabelValues(connectionID).Set(float64(count))
}

// SetBackPressure publishes whether a connection's queue is currently full.
func SetBackPressure(connectionID string, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	queueBackPressure.WithLabelValues(connectionID).Set(v)
}

// SetWorkerPoolUtilization publishes the active-worker count for a pool.
func SetWorkerPoolUtilization(pool string, active int) {
	workerPoolUtilization.WithLabelValues(pool).Set(float64(active))
}

// RecordHeartbeatSend records how long transmitting a heartbeat took.
func RecordHeartbeatSend(duration time.Duration) {
	heartbeatSendDuration.Observe(duration.Seconds())
}

// RecordHeartbeatOverwritten records a generated snapshot overwritten unsent.
func RecordHeartbeatOverwritten() {
	heartbeatDropped.Inc()
}

// RecordStatusAggregation records the duration of one aggregation pass.
func RecordStatusAggregation(duration time.Duration) {
	statusAggregationDuration.Observe(duration.Seconds())
}

type observationCollector struct {
	gauge *prometheus.GaugeVec
	hist  *prometheus.HistogramVec
}

// ObservationHooks creates core.ObservationHooks backed by a lazily-created,
// namespace/subsystem/name-keyed pair of Prometheus collectors. Reused by
// reporting-task and remote-process-group refresh instrumentation.
func ObservationHooks(namespace, subsystem, name string) core.ObservationHooks {
	key := namespace + ":" + subsystem + ":" + name
	var collector observationCollector
	if entry, ok := observationCollectors.Load(key); ok {
		collector = entry.(observationCollector)
	} else {
		collector = createObservationCollector(namespace, subsystem, name)
		observationCollectors.Store(key, collector)
	}
	return core.ObservationHooks{
		OnStart: func(_ context.Context, meta map[string]string) {
			collector.gauge.WithLabelValues(metaLabel(meta)).Inc()
		},
		OnComplete: func(_ context.Context, meta map[string]string, err error, duration time.Duration) {
			label := metaLabel(meta)
			collector.gauge.WithLabelValues(label).Dec()
			status := "success"
			if err != nil {
				status = "error"
			}
			collector.hist.WithLabelValues(label, status).Observe(duration.Seconds())
		},
	}
}

func createObservationCollector(namespace, subsystem, name string) observationCollector {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name + "_in_flight",
			Help:      "Current operations in flight for " + subsystem,
		},
		[]string{"resource"},
	)
	hist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name + "_duration_seconds",
			Help:      "Duration of operations for " + subsystem,
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"resource", "status"},
	)
	Registry.MustRegister(gauge, hist)
	return observationCollector{gauge: gauge, hist: hist}
}

func metaLabel(meta map[string]string) string {
	if meta == nil {
		return "unknown"
	}
	if id, ok := meta["component_id"]; ok && id != "" {
		return id
	}
	if id, ok := meta["group_id"]; ok && id != "" {
		return id
	}
	return "unknown"
}
