package database

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource reports pool statistics. *Database implements it.
type StatsSource interface {
	Stats() PoolStats
}

// PoolCollector exports pool statistics as Prometheus metrics.
type PoolCollector struct {
	source StatsSource

	acquired        *prometheus.Desc
	idle            *prometheus.Desc
	total           *prometheus.Desc
	max             *prometheus.Desc
	acquireCount    *prometheus.Desc
	acquireDuration *prometheus.Desc
}

// NewPoolCollector creates a collector reading from source.
// constLabels are attached to every metric (e.g. the database name).
func NewPoolCollector(source StatsSource, constLabels prometheus.Labels) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("db", "pool", name), help, nil, constLabels)
	}

	return &PoolCollector{
		source:          source,
		acquired:        desc("acquired_connections", "Connections currently checked out of the pool."),
		idle:            desc("idle_connections", "Idle connections in the pool."),
		total:           desc("total_connections", "Total connections in the pool."),
		max:             desc("max_connections", "Maximum size of the pool."),
		acquireCount:    desc("acquires_total", "Successful acquires from the pool."),
		acquireDuration: desc("acquire_duration_seconds_total", "Total time spent waiting to acquire connections."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquireCount
	ch <- c.acquireDuration
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(s.AcquireCount))
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, s.AcquireDuration.Seconds())
}
