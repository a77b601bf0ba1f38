package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	shardLoads   *prometheus.CounterVec
	loadDuration prometheus.Histogram
	inferTotal   *prometheus.CounterVec
	samplesTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		shardLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardsim",
				Subsystem: "engine",
				Name:      "shard_loads_total",
				Help:      "Total number of simulated shard loads",
			},
			[]string{"model"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "shardsim",
				Subsystem: "engine",
				Name:      "shard_load_duration_seconds",
				Help:      "Duration of simulated shard loads in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		inferTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardsim",
				Subsystem: "engine",
				Name:      "infer_total",
				Help:      "Total InferTensor calls by pipeline stage",
			},
			[]string{"stage"},
		),
		samplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shardsim",
				Subsystem: "engine",
				Name:      "samples_total",
				Help:      "Total sampled tokens by kind (eos or token)",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.shardLoads, m.loadDuration, m.inferTotal, m.samplesTotal)
	}
	return m
}

func (m *Metrics) observeLoad(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.shardLoads.WithLabelValues(model).Inc()
	m.loadDuration.Observe(d.Seconds())
}

func (m *Metrics) observeInfer(stage string) {
	if m == nil {
		return
	}
	m.inferTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) observeSample(eos bool) {
	if m == nil {
		return
	}
	kind := "token"
	if eos {
		kind = "eos"
	}
	m.samplesTotal.WithLabelValues(kind).Inc()
}

// stageLabel names the pipeline position of a shard for metric labels.
func stageLabel(first, last bool) string {
	switch {
	case first && last:
		return "single"
	case first:
		return "first"
	case last:
		return "last"
	default:
		return "middle"
	}
}
