// Package metrics exposes Prometheus collectors for the HTTP surface and the planner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricHTTPRequestsTotal      = "rodaje_http_requests_total"
	MetricHTTPRequestDuration    = "rodaje_http_request_duration_seconds"
	MetricPlanGenerationTotal    = "rodaje_plan_generation_total"
	MetricPlanGenerationDuration = "rodaje_plan_generation_duration_seconds"
	MetricPlanDays               = "rodaje_plan_days"
	MetricPlanScore              = "rodaje_plan_score"
	MetricPlanFindingsTotal      = "rodaje_plan_findings_total"
	MetricDistanceLookupsTotal   = "rodaje_distance_lookups_total"
	MetricEditCommandsTotal      = "rodaje_edit_commands_total"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Distance lookup sources.
const (
	LookupCacheHit  = "cache_hit"
	LookupProvider  = "provider"
	LookupFallback  = "great_circle"
	LookupCacheFail = "cache_error"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricHTTPRequestsTotal, Help: "HTTP requests by method, route and status"},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "path"},
	)
	planGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricPlanGenerationTotal, Help: "Plan generations by strategy and status"},
		[]string{"strategy", "status"},
	)
	planDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricPlanGenerationDuration,
			Help:    "Plan generation latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"strategy"},
	)
	planDays = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricPlanDays,
		Help:    "Shooting days per generated plan",
		Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90},
	})
	planScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricPlanScore,
		Help: "Validation score of the last generated plan",
	})
	planFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricPlanFindingsTotal, Help: "Validation findings by rule and severity"},
		[]string{"rule", "severity"},
	)
	distanceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricDistanceLookupsTotal, Help: "Distance matrix lookups by source"},
		[]string{"source"},
	)
	editCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: MetricEditCommandsTotal, Help: "Plan edit commands by op and status"},
		[]string{"op", "status"},
	)
)

// Collectors returns every collector of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequests, httpDuration,
		planGenerations, planDuration, planDays, planScore, planFindings,
		distanceLookups, editCommands,
	}
}

// Register registers the collectors with reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

// RecordRequestMetrics records one HTTP request. path should be the route pattern.
func RecordRequestMetrics(method, path string, code int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordPlanGeneration records one generatePlan call.
func RecordPlanGeneration(strategy string, success bool, d time.Duration, days int) {
	planGenerations.WithLabelValues(strategy, status(success)).Inc()
	planDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if success {
		planDays.Observe(float64(days))
	}
}

// SetPlanScore records the validation score of the latest plan.
func SetPlanScore(score float64) {
	planScore.Set(score)
}

// RecordFinding counts one validation finding.
func RecordFinding(rule, severity string) {
	planFindings.WithLabelValues(rule, severity).Inc()
}

// RecordDistanceLookup counts one matrix lookup served from source.
func RecordDistanceLookup(source string) {
	distanceLookups.WithLabelValues(source).Inc()
}

// RecordEditCommand counts one applied or rejected edit.
func RecordEditCommand(op string, success bool) {
	editCommands.WithLabelValues(op, status(success)).Inc()
}
