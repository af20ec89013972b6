package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 汇总引擎各环节的计数器。nil Recorder 上的所有方法都是空操作。
type Recorder struct {
	intents      *prometheus.CounterVec
	lookups      *prometheus.CounterVec
	synthesis    *prometheus.CounterVec
	learned      *prometheus.CounterVec
	signals      *prometheus.CounterVec
	correlations *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New 在给定的 registerer 上注册指标，测试里传入独立的 prometheus.NewRegistry()
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		intents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_intents_total",
				Help: "Classified queries by intent",
			},
			[]string{"intent"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_lookups_total",
				Help: "Knowledge lookups by predicate and result",
			},
			[]string{"predicate", "result"},
		),
		synthesis: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_synthesis_total",
				Help: "Knowledge synthesis calls by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		learned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_facts_learned_total",
				Help: "Facts written back into the store by predicate and outcome",
			},
			[]string{"predicate", "outcome"},
		),
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_signals_total",
				Help: "Generated trading signals",
			},
			[]string{"signal"},
		),
		correlations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "echosage_correlated_requests_total",
				Help: "Correlated requests by outcome",
			},
			[]string{"outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "echosage_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordIntent(intent string) {
	if r == nil {
		return
	}
	r.intents.WithLabelValues(intent).Inc()
}

func (r *Recorder) RecordLookup(predicate string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(predicate, result).Inc()
}

func (r *Recorder) RecordSynthesis(intent, outcome string) {
	if r == nil {
		return
	}
	r.synthesis.WithLabelValues(intent, outcome).Inc()
}

func (r *Recorder) RecordLearned(predicate, outcome string) {
	if r == nil {
		return
	}
	r.learned.WithLabelValues(predicate, outcome).Inc()
}

func (r *Recorder) RecordSignal(signal string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(signal).Inc()
}

func (r *Recorder) RecordCorrelation(outcome string) {
	if r == nil {
		return
	}
	r.correlations.WithLabelValues(outcome).Inc()
}

// RecordLatency 以秒为单位记录耗时
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}
