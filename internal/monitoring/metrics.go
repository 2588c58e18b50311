package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decision metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_decisions_total",
			Help: "Total number of risk decisions by outcome and reason",
		},
		[]string{"outcome", "reason"},
	)

	assessLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_engine_assess_latency_seconds",
			Help:    "Distribution of assess call latency",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005},
		},
	)

	riskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_engine_risk_score",
			Help:    "Distribution of computed risk scores (0-100)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Safety state metrics
	safetyLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_safety_level",
			Help: "Current drawdown safety level (0=NORMAL, 1=CAUTION, 2=SAFE_MODE, 3=EMERGENCY)",
		},
	)

	safetyTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_safety_transitions_total",
			Help: "Safety level transitions by target level",
		},
		[]string{"to"},
	)

	// Exposure metrics
	clusterExposure = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "risk_engine_cluster_exposure_pct",
			Help: "Correlated cluster exposure as percent of equity, by candidate symbol",
		},
		[]string{"symbol"},
	)

	// Stop-loss metrics
	stopAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_stop_adjustments_total",
			Help: "Stop level adjustments by stop type",
		},
		[]string{"type"},
	)

	// Journal metrics
	journalFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_engine_journal_failures_total",
			Help: "Errors handing decisions to the audit sink",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(assessLatency)
	prometheus.MustRegister(riskScore)
	prometheus.MustRegister(safetyLevel)
	prometheus.MustRegister(safetyTransitions)
	prometheus.MustRegister(clusterExposure)
	prometheus.MustRegister(stopAdjustments)
	prometheus.MustRegister(journalFailures)
}

// Handler returns the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDecision records one risk decision outcome.
func RecordDecision(approved bool, reason string, score float64, elapsed time.Duration) {
	outcome := "approved"
	if !approved {
		outcome = "rejected"
	}
	if reason == "" {
		reason = "none"
	}
	decisionsTotal.WithLabelValues(outcome, reason).Inc()
	assessLatency.Observe(elapsed.Seconds())
	riskScore.Observe(score)
}

// SetSafetyLevel updates the current safety level gauge.
func SetSafetyLevel(level int) {
	safetyLevel.Set(float64(level))
}

// RecordSafetyTransition counts a safety level transition.
func RecordSafetyTransition(to string) {
	safetyTransitions.WithLabelValues(to).Inc()
}

// SetClusterExposure updates the correlated exposure gauge for a symbol.
func SetClusterExposure(symbol string, pct float64) {
	clusterExposure.WithLabelValues(symbol).Set(pct)
}

// RecordStopAdjustment counts a stop level move.
func RecordStopAdjustment(stopType string) {
	stopAdjustments.WithLabelValues(stopType).Inc()
}

// RecordJournalFailure counts a failed audit sink hand-off.
func RecordJournalFailure() {
	journalFailures.Inc()
}
