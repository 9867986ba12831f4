package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
// A nil *Metrics, or one never registered, records nothing.
type Metrics struct {
	clearanceOutcomes     *prometheus.CounterVec
	providerFailures      *prometheus.CounterVec
	settlementTransitions *prometheus.CounterVec
	ledgerMutations       *prometheus.CounterVec
	registrationOutcomes  *prometheus.CounterVec
	extractionDuration    prometheus.Histogram

	// registerOnce ensures Prometheus metrics are only registered once
	registerOnce sync.Once
}

// New creates metrics registered with registry. A nil registry yields a no-op instance.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

// Register registers Prometheus metrics with the given registry.
// If registry is nil, this is a no-op. Subsequent calls after the first registration are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if m == nil || registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.clearanceOutcomes = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_clearance_evaluations_total",
			Help: "Total number of clearance evaluations by resulting status",
		}, []string{"status"})

		m.providerFailures = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_rights_check_provider_failures_total",
			Help: "Total number of rights-check provider calls that failed after retries",
		}, []string{"provider"})

		m.settlementTransitions = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_settlement_transitions_total",
			Help: "Total number of ISSUED to SETTLED transitions by settlement rule",
		}, []string{"rule"})

		m.ledgerMutations = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_ledger_mutations_total",
			Help: "Total number of committed fractional ownership ledger mutations",
		}, []string{"kind"})

		m.registrationOutcomes = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "issuance_registration_attempts_total",
			Help: "Total number of external registration attempts by resulting job status",
		}, []string{"status"})

		m.extractionDuration = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "issuance_fingerprint_extraction_seconds",
			Help:    "Duration of audio fingerprint extraction",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		})
	})
}

// ObserveClearance counts a clearance evaluation outcome
func (m *Metrics) ObserveClearance(status string) {
	if m == nil || m.clearanceOutcomes == nil {
		return
	}
	m.clearanceOutcomes.WithLabelValues(status).Inc()
}

// ObserveProviderFailure counts a provider call that exhausted its retries
func (m *Metrics) ObserveProviderFailure(provider string) {
	if m == nil || m.providerFailures == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

// ObserveSettlement counts a settlement transition
func (m *Metrics) ObserveSettlement(rule string) {
	if m == nil || m.settlementTransitions == nil {
		return
	}
	m.settlementTransitions.WithLabelValues(rule).Inc()
}

// ObserveLedgerMutation counts a committed ledger mutation
func (m *Metrics) ObserveLedgerMutation(kind string) {
	if m == nil || m.ledgerMutations == nil {
		return
	}
	m.ledgerMutations.WithLabelValues(kind).Inc()
}

// ObserveRegistration counts a registration attempt outcome
func (m *Metrics) ObserveRegistration(status string) {
	if m == nil || m.registrationOutcomes == nil {
		return
	}
	m.registrationOutcomes.WithLabelValues(status).Inc()
}

// ObserveExtraction records the duration of one fingerprint extraction
func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil || m.extractionDuration == nil {
		return
	}
	m.extractionDuration.Observe(d.Seconds())
}
