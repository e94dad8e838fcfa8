// Package metrics provides Prometheus metrics for the tracker service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the tracker records. It owns a private
// registry so the /metrics endpoint exposes only what the service emits.
type Metrics struct {
	registry *prometheus.Registry

	eventsIngested    prometheus.Counter
	eventsDuplicate   prometheus.Counter
	reposScored       prometheus.Counter
	passDuration      prometheus.Histogram
	collectorEvents   *prometheus.CounterVec
	collectorFailures *prometheus.CounterVec
	sourcesDisabled   prometheus.Gauge
	alertsSent        *prometheus.CounterVec
	alertsSuppressed  *prometheus.CounterVec
	enrichFailures    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)
	const namespace = "repopulse"

	return &Metrics{
		registry: registry,
		eventsIngested: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of new mention events persisted",
		}),
		eventsDuplicate: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_duplicate_total",
			Help:      "Total number of mention events dropped as already seen",
		}),
		reposScored: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repos_scored_total",
			Help:      "Total number of repository score snapshots written",
		}),
		passDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of full collect-score-alert passes",
			Buckets:   prometheus.DefBuckets,
		}),
		collectorEvents: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_events_total",
			Help:      "Total number of raw events returned per source",
		}, []string{"source"}),
		collectorFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_failures_total",
			Help:      "Total number of failed collection attempts per source",
		}, []string{"source"}),
		sourcesDisabled: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sources_disabled",
			Help:      "Number of sources currently disabled by the rate limit breaker",
		}),
		alertsSent: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "Total number of delivered alerts by send reason",
		}, []string{"reason"}),
		alertsSuppressed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of suppressed alerts by suppression reason",
		}, []string{"reason"}),
		enrichFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_failures_total",
			Help:      "Total number of failed GitHub metadata lookups",
		}),
	}
}

func (m *Metrics) RecordEventsIngested(inserted, duplicates int) {
	m.eventsIngested.Add(float64(inserted))
	m.eventsDuplicate.Add(float64(duplicates))
}

func (m *Metrics) RecordRepoScored() { m.reposScored.Inc() }

func (m *Metrics) RecordPassDuration(seconds float64) { m.passDuration.Observe(seconds) }

func (m *Metrics) RecordCollectorEvents(source string, count int) {
	m.collectorEvents.WithLabelValues(source).Add(float64(count))
}

func (m *Metrics) RecordCollectorFailure(source string) {
	m.collectorFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) SetSourcesDisabled(count int) { m.sourcesDisabled.Set(float64(count)) }

func (m *Metrics) RecordAlertSent(reason string) { m.alertsSent.WithLabelValues(reason).Inc() }

func (m *Metrics) RecordAlertSuppressed(reason string) {
	m.alertsSuppressed.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordEnrichFailure() { m.enrichFailures.Inc() }

// Handler serves the private registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
