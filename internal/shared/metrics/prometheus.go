package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Fraud analysis metrics
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_analyses_total",
			Help: "Total number of fraud analyses performed",
		},
		[]string{"risk_level"},
	)

	violationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_violations_total",
			Help: "Total number of fraud violations detected",
		},
		[]string{"type", "severity"},
	)

	fraudScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_score",
			Help:    "Distribution of computed fraud scores",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	highRiskCases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_high_risk_cases_total",
			Help: "Total number of cases classified HIGH or CRITICAL",
		},
	)

	reviewDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_review_decisions_total",
			Help: "Total number of reviewer decisions on stored cases",
		},
		[]string{"decision"},
	)

	claimsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_imported_total",
			Help: "Total number of claims imported from hospital systems",
		},
		[]string{"source"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordAnalysis records a completed fraud analysis
func RecordAnalysis(riskLevel string, score float64) {
	analysesTotal.WithLabelValues(riskLevel).Inc()
	fraudScores.Observe(score)
	if riskLevel == "HIGH" || riskLevel == "CRITICAL" {
		highRiskCases.Inc()
	}
}

// RecordViolation records a detected violation
func RecordViolation(violationType, severity string) {
	violationsTotal.WithLabelValues(violationType, severity).Inc()
}

// RecordReviewDecision records a reviewer decision
func RecordReviewDecision(decision string) {
	reviewDecisions.WithLabelValues(decision).Inc()
}

// RecordClaimsImported records claims imported from a hospital source
func RecordClaimsImported(source string, count int) {
	claimsImported.WithLabelValues(source).Add(float64(count))
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
