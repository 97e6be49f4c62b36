package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treeset_operations_total",
		Help: "Operations accepted by the coordinator, by kind",
	}, []string{"kind"})
	operationsDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treeset_operations_deferred_total",
		Help: "Operations queued because a GC cycle was in progress",
	})
	pendingOperations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treeset_pending_operations",
		Help: "Operations currently queued behind a GC cycle",
	})
)

var (
	gcCyclesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treeset_gc_cycles_started_total",
		Help: "GC cycles started",
	})
	gcCyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treeset_gc_cycles_completed_total",
		Help: "GC cycles that swapped in a new root",
	})
	gcTriggersIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treeset_gc_triggers_ignored_total",
		Help: "GC triggers that did not start a cycle, by reason",
	}, []string{"reason"})
	gcDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treeset_gc_duration_seconds",
		Help:    "Time from GC trigger to root swap",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
	generationGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treeset_generation",
		Help: "Generation of the current tree",
	})
	unexpectedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treeset_coordinator_unexpected_messages_total",
		Help: "Messages the coordinator dropped because its state does not accept them",
	}, []string{"state", "message"})
)
