package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signaldesk"

// Recorder collects scan metrics on a private registry. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry

	ruleOutcomes    *prometheus.CounterVec
	emissions       *prometheus.CounterVec
	sectionFailures *prometheus.CounterVec
	quality         *prometheus.GaugeVec
	stress          prometheus.Gauge
	tickDuration    prometheus.Histogram
	lastTick        prometheus.Gauge
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		ruleOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_outcomes_total",
				Help:      "Rule evaluations by outcome (detected or abstained)",
			},
			[]string{"rule", "outcome"},
		),
		emissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emissions_total",
				Help:      "Emission decisions by rule and reason",
			},
			[]string{"rule", "result"},
		),
		sectionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "section_failures_total",
				Help:      "Snapshot sections that could not be fetched or computed",
			},
			[]string{"section"},
		),
		quality: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "play_quality",
				Help:      "Quality score of the last detected play per rule",
			},
			[]string{"rule"},
		),
		stress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stress_index",
			Help:      "Composite market stress index of the last tick",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full scan tick",
			Buckets:   prometheus.DefBuckets,
		}),
		lastTick: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the last completed tick",
		}),
	}
}

// Registry exposes the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordRule records whether a rule detected a play
func (r *Recorder) RecordRule(rule string, detected bool) {
	if r == nil {
		return
	}
	outcome := "abstained"
	if detected {
		outcome = "detected"
	}
	r.ruleOutcomes.WithLabelValues(rule, outcome).Inc()
}

// RecordQuality records the score of a detected play
func (r *Recorder) RecordQuality(rule string, value int) {
	if r == nil {
		return
	}
	r.quality.WithLabelValues(rule).Set(float64(value))
}

// RecordEmission records a lifecycle decision. result is "delivered", "failed" or the suppression reason.
func (r *Recorder) RecordEmission(rule, result string) {
	if r == nil {
		return
	}
	r.emissions.WithLabelValues(rule, result).Inc()
}

// RecordSectionFailure records a degraded snapshot section
func (r *Recorder) RecordSectionFailure(section string) {
	if r == nil {
		return
	}
	r.sectionFailures.WithLabelValues(section).Inc()
}

// RecordTick records the stress and duration of a finished tick
func (r *Recorder) RecordTick(stress int, started time.Time, finished time.Time) {
	if r == nil {
		return
	}
	r.stress.Set(float64(stress))
	r.tickDuration.Observe(finished.Sub(started).Seconds())
	r.lastTick.Set(float64(finished.Unix()))
}

// WriteToTextfile writes the registry in the textfile collector format
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
