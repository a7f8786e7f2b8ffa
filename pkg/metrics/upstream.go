package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records the health of calls to the document renderer.
type UpstreamMetrics struct {
	requestDuration *prometheus.HistogramVec
	refreshAttempts prometheus.Counter
	refreshSuccess  prometheus.Counter
	refreshFailure  prometheus.Counter
	replayedCalls   prometheus.Counter
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of outbound document renderer calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	refreshAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upstream_refresh_attempts",
		Help: "Credential refresh rounds started.",
	})
	refreshSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upstream_refresh_success",
		Help: "Credential refresh rounds that produced a new token.",
	})
	refreshFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upstream_refresh_failure",
		Help: "Credential refresh rounds that failed.",
	})
	replayedCalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upstream_replayed_calls",
		Help: "Calls replayed after a credential refresh.",
	})
	reg.MustRegister(requestDuration, refreshAttempts, refreshSuccess, refreshFailure, replayedCalls)
	return &UpstreamMetrics{
		requestDuration: requestDuration,
		refreshAttempts: refreshAttempts,
		refreshSuccess:  refreshSuccess,
		refreshFailure:  refreshFailure,
		replayedCalls:   replayedCalls,
	}
}

// ObserveRequest records the duration of one outbound call.
func (m *UpstreamMetrics) ObserveRequest(operation string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncRefreshAttempt increments the refresh-round counter.
func (m *UpstreamMetrics) IncRefreshAttempt() {
	if m == nil || m.refreshAttempts == nil {
		return
	}
	m.refreshAttempts.Inc()
}

// IncRefreshSuccess increments the successful-refresh counter.
func (m *UpstreamMetrics) IncRefreshSuccess() {
	if m == nil || m.refreshSuccess == nil {
		return
	}
	m.refreshSuccess.Inc()
}

// IncRefreshFailure increments the failed-refresh counter.
func (m *UpstreamMetrics) IncRefreshFailure() {
	if m == nil || m.refreshFailure == nil {
		return
	}
	m.refreshFailure.Inc()
}

// IncReplayedCall increments the replayed-call counter.
func (m *UpstreamMetrics) IncReplayedCall() {
	if m == nil || m.replayedCalls == nil {
		return
	}
	m.replayedCalls.Inc()
}

func normalizeLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
