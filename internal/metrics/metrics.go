package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for calls made to the session backend.
type Metrics struct {
	// Backend calls by endpoint and status code ("error" for transport failures)
	BackendRequests *prometheus.CounterVec

	// Backend call latency by endpoint
	BackendLatency *prometheus.HistogramVec

	// Session refresh outcomes ("ok", "error")
	SessionRefreshes *prometheus.CounterVec

	// Access grant submissions by outcome
	GrantSubmissions *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podapp_backend_requests_total",
			Help: "Total requests to the session backend by endpoint and status",
		}, []string{"endpoint", "status"}),

		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podapp_backend_request_duration_seconds",
			Help:    "Duration of requests to the session backend by endpoint",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		SessionRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podapp_session_refreshes_total",
			Help: "Total session information refreshes by result",
		}, []string{"result"}),

		GrantSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "podapp_access_grant_submissions_total",
			Help: "Total access grant submissions by result",
		}, []string{"result"}),
	}
}

// ObserveBackendRequest records one backend call. status 0 means the request never got a response.
func (m *Metrics) ObserveBackendRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendRequests.WithLabelValues(endpoint, label).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncrementRefresh records a session refresh outcome.
func (m *Metrics) IncrementRefresh(err error) {
	if m != nil {
		m.SessionRefreshes.WithLabelValues(result(err)).Inc()
	}
}

// IncrementGrantSubmission records an access grant submission outcome.
func (m *Metrics) IncrementGrantSubmission(err error) {
	if m != nil {
		m.GrantSubmissions.WithLabelValues(result(err)).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
