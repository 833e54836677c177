// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registrationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "registry",
		Name:      "registrations_total",
		Help:      "Registration attempts grouped by outcome (created, taken, error).",
	}, []string{"outcome"})

	exerciseAppendedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "exercises_appended_total",
		Help:      "Number of exercise records appended to a log.",
	})

	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "last_exercise_date_timestamp_seconds",
		Help:      "Unix timestamp of the activity date of the most recently appended exercise.",
	})

	logQueryRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "query_records",
		Help:      "Number of records returned per log query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests grouped by method and status code.",
	}, []string{"method", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		registrationCounter,
		exerciseAppendedCounter,
		lastExerciseGauge,
		logQueryRecords,
		httpRequests,
		httpDuration,
	)
}

// RecordRegistration counts a registration attempt.
func RecordRegistration(outcome string) {
	registrationCounter.WithLabelValues(outcome).Inc()
}

// RecordExerciseAppended counts an append and updates the activity date watermark.
func RecordExerciseAppended(date time.Time) {
	exerciseAppendedCounter.Inc()
	if date.IsZero() {
		return
	}
	lastExerciseGauge.Set(float64(date.Unix()))
}

// RecordLogQuery observes the size of a served log.
func RecordLogQuery(records int) {
	logQueryRecords.Observe(float64(records))
}

// RecordHTTPRequest observes a finished HTTP request.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
