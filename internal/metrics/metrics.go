package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FinalizeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_finalize_total",
		Help: "Finalization attempts by outcome.",
	}, []string{"outcome"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_status_transitions_total",
		Help: "Activity status transitions by target status.",
	}, []string{"to"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curio_cache_hits_total",
		Help: "Read-through cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curio_cache_misses_total",
		Help: "Read-through cache misses.",
	})

	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curio_notify_failures_total",
		Help: "Best-effort notification dispatch failures.",
	})
)
