package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	sessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loungepos",
			Name:      "sessions_started_total",
			Help:      "Count of sessions started by station kind.",
		},
		[]string{"kind"},
	)

	sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loungepos",
			Name:      "sessions_closed_total",
			Help:      "Count of sessions closed by station kind.",
		},
		[]string{"kind"},
	)

	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loungepos",
			Name:      "session_duration_minutes",
			Help:      "Closed session durations in minutes.",
			Buckets:   []float64{15, 30, 60, 120, 180, 300},
		},
		[]string{"kind"},
	)

	revenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loungepos",
			Name:      "revenue_total",
			Help:      "Billed amount in currency units by station kind.",
		},
		[]string{"kind"},
	)

	persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loungepos",
			Name:      "persistence_failures_total",
			Help:      "Count of failed durable writes by operation.",
		},
		[]string{"op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loungepos",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(sessionsStarted, sessionsClosed, sessionDuration, revenue, persistenceFailures, httpRequests)
	})
}

func IncSessionStarted(kind string) {
	sessionsStarted.WithLabelValues(kind).Inc()
}

func IncSessionClosed(kind string) {
	sessionsClosed.WithLabelValues(kind).Inc()
}

func ObserveSessionDuration(kind string, minutes int) {
	sessionDuration.WithLabelValues(kind).Observe(float64(minutes))
}

func AddRevenue(kind string, amount int64) {
	revenue.WithLabelValues(kind).Add(float64(amount))
}

func IncPersistenceFailure(op string) {
	persistenceFailures.WithLabelValues(op).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
