package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samcaspus/tieredstore/blob"
	"github.com/samcaspus/tieredstore/engine"
)

// statsCollector is a pull-model prometheus.Collector: each scrape
// reads a fresh stats.Snapshot from the engine rather than tracking
// its own counters, so /metrics can never drift from GET /admin/stats
// (spec §4.4's single stats() contract — see SPEC_FULL.md §4.4).
type statsCollector struct {
	eng        *engine.Engine
	totalFiles *prometheus.Desc
	totalSize  *prometheus.Desc
	tierCount  *prometheus.Desc
	tierSize   *prometheus.Desc
}

func newStatsCollector(eng *engine.Engine) *statsCollector {
	return &statsCollector{
		eng:        eng,
		totalFiles: prometheus.NewDesc("tos_total_files", "Total number of stored blobs.", nil, nil),
		totalSize:  prometheus.NewDesc("tos_total_size_bytes", "Total bytes stored across all blobs.", nil, nil),
		tierCount:  prometheus.NewDesc("tos_tier_files", "Number of blobs in a tier.", []string{"tier"}, nil),
		tierSize:   prometheus.NewDesc("tos_tier_size_bytes", "Bytes stored in a tier.", []string{"tier"}, nil),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalFiles
	ch <- c.totalSize
	ch <- c.tierCount
	ch <- c.tierSize
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	snap, _ := c.eng.Stats()
	ch <- prometheus.MustNewConstMetric(c.totalFiles, prometheus.GaugeValue, float64(snap.TotalFiles))
	ch <- prometheus.MustNewConstMetric(c.totalSize, prometheus.GaugeValue, float64(snap.TotalSize))
	for _, t := range blob.AllTiers {
		b := snap.Tiers[t]
		ch <- prometheus.MustNewConstMetric(c.tierCount, prometheus.GaugeValue, float64(b.Count), string(t))
		ch <- prometheus.MustNewConstMetric(c.tierSize, prometheus.GaugeValue, float64(b.Size), string(t))
	}
}
