package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface and generation runs.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	generationRuns       *prometheus.CounterVec
	generationDuration   prometheus.Histogram
	generatedSessions    prometheus.Counter
	unscheduledSubjects  prometheus.Gauge
	lastGenerationMillis prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Timetable generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: prometheus.DefBuckets,
	})

	generatedSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generated_sessions_total",
		Help: "Sessions placed by the allocator",
	})

	unscheduledSubjects := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_unscheduled_subjects",
		Help: "Curriculum subjects left short by the last successful run",
	})

	lastGeneration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_generation_duration_milliseconds",
		Help: "Duration of the most recent generation run",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, generationDuration, generatedSessions, unscheduledSubjects, lastGeneration, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		generationRuns:       generationRuns,
		generationDuration:   generationDuration,
		generatedSessions:    generatedSessions,
		unscheduledSubjects:  unscheduledSubjects,
		lastGenerationMillis: lastGeneration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records one generation run. Session and unscheduled
// counts only move for runs that reached the allocator.
func (m *MetricsService) ObserveGeneration(outcome string, duration time.Duration, generated, unscheduled int) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	m.lastGenerationMillis.Set(float64(duration.Milliseconds()))
	if outcome != generationOutcomeSuccess && outcome != generationOutcomeDryRun {
		return
	}
	m.generatedSessions.Add(float64(generated))
	m.unscheduledSubjects.Set(float64(unscheduled))
}
