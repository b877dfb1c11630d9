package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/educhainx/credential-gateway/internal/verification"
)

// Prometheus metrics
var (
	verificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_outcome_total",
			Help: "Verification pipeline outcomes by result",
		},
		[]string{"outcome"},
	)
	ledgerRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_records",
			Help: "Number of accepted verification records in the ledger",
		},
	)
	registryCertificates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_certificates",
			Help: "Number of certificates currently stored in the registry",
		},
	)
	registryRevoked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_revoked_certificates",
			Help: "Number of revoked certificates in the registry",
		},
	)
)

var outcomeLabels = map[verification.Outcome]string{
	verification.Accepted:        "accepted",
	verification.RejectedOnChain: "rejected_on_chain",
	verification.RejectedOnHash:  "rejected_on_hash",
}

// Totals is a point-in-time view of the shared collections.
type Totals struct {
	Records      int
	Certificates int
	Revoked      int
}

// PrometheusReporter pushes gateway state into the Prometheus registry.
type PrometheusReporter struct{}

// NewPrometheusReporter creates a reporter.
func NewPrometheusReporter() *PrometheusReporter {
	return &PrometheusReporter{}
}

// ReportOutcome counts one pipeline outcome.
func (r *PrometheusReporter) ReportOutcome(o verification.Outcome) {
	verificationOutcomes.WithLabelValues(outcomeLabels[o]).Inc()
}

// ReportTotals updates the gauges with the provided totals.
func (r *PrometheusReporter) ReportTotals(totals Totals) {
	ledgerRecords.Set(float64(totals.Records))
	registryCertificates.Set(float64(totals.Certificates))
	registryRevoked.Set(float64(totals.Revoked))
}

// WireUpHttpMetrics registers the Prometheus scrape endpoint.
func (r *PrometheusReporter) WireUpHttpMetrics() {
	http.Handle("/metrics", promhttp.Handler())
}
