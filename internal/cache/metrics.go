package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langler_cache_hits_total",
		Help: "Total cache hits",
	}, []string{"namespace"})

	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langler_cache_misses_total",
		Help: "Total cache misses, expired entries included",
	}, []string{"namespace"})
)

type namespaceMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

func metricsFor(namespace string) *namespaceMetrics {
	return &namespaceMetrics{
		hits:   hitsTotal.WithLabelValues(namespace),
		misses: missesTotal.WithLabelValues(namespace),
	}
}
