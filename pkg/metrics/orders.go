package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks purchase-order lifecycle events.
type OrderMetrics struct {
	confirmed       prometheus.Counter
	draftsSaved     prometheus.Counter
	sessionsStarted prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	confirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchase_orders_confirmed",
		Help: "Purchase orders moved from draft to confirmed.",
	})
	draftsSaved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "purchase_order_drafts_saved",
		Help: "Purchase order drafts created or updated.",
	})
	sessionsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "count_sessions_started",
		Help: "Stock count sessions started.",
	})
	reg.MustRegister(confirmed, draftsSaved, sessionsStarted)
	return &OrderMetrics{
		confirmed:       confirmed,
		draftsSaved:     draftsSaved,
		sessionsStarted: sessionsStarted,
	}
}

// IncConfirmed increments the confirmed-order counter.
func (m *OrderMetrics) IncConfirmed() {
	if m == nil || m.confirmed == nil {
		return
	}
	m.confirmed.Inc()
}

// IncDraftSaved increments the saved-draft counter.
func (m *OrderMetrics) IncDraftSaved() {
	if m == nil || m.draftsSaved == nil {
		return
	}
	m.draftsSaved.Inc()
}

// IncSessionStarted increments the started-session counter.
func (m *OrderMetrics) IncSessionStarted() {
	if m == nil || m.sessionsStarted == nil {
		return
	}
	m.sessionsStarted.Inc()
}
