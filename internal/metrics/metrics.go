// Package metrics exposes Prometheus counters for export runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is registered on its own registry so tests and repeated runs in
// one process do not collide on the default one.
type Metrics struct {
	reg *prometheus.Registry

	BlocksTotal   *prometheus.CounterVec
	EntriesTotal  prometheus.Counter
	NeighborEvals prometheus.Counter
	ChunksTotal   prometheus.Counter
	ChunkDuration prometheus.Histogram
	RejectedDefs  prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		BlocksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "miex_blocks_total",
				Help: "Blocks visited by the exporter, by outcome",
			},
			[]string{"outcome"},
		),
		EntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "miex_entries_total",
			Help: "Geometry entries written",
		}),
		NeighborEvals: f.NewCounter(prometheus.CounterOpts{
			Name: "miex_neighbor_evaluations_total",
			Help: "Blocks whose definition consulted neighbouring blocks",
		}),
		ChunksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "miex_chunks_total",
			Help: "Chunks exported",
		}),
		ChunkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "miex_chunk_duration_seconds",
			Help:    "Time spent exporting one chunk",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		RejectedDefs: f.NewGauge(prometheus.GaugeOpts{
			Name: "miex_rejected_definitions",
			Help: "Blockstate definitions rejected by the last pack load",
		}),
	}
}

// Block outcomes used as the BlocksTotal label.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeUnknown   = "unknown"
)

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
