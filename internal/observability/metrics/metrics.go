package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "triage"

	turnsMetric      = "triage_chat_turns_total"
	conditionsMetric = "triage_chat_conditions_resolved_total"
	bookingsMetric   = "triage_bookings_outcome_total"
	errorsMetric     = "triage_errors_total"
)

// TriageMetrics exposes counters/histograms for chat and booking flows.
// Every method is safe on a nil receiver.
type TriageMetrics struct {
	turnsTotal      *prometheus.CounterVec
	conditionsTotal *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

// NewTriageMetrics registers the collectors on reg (the default registerer when nil).
func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	m := &TriageMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns processed, by stage before and after the turn",
		}, []string{"from_stage", "to_stage"}),
		conditionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "conditions_resolved_total",
			Help:      "Conditions suggested to users",
		}, []string{"condition"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "outcome_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Requests that degraded to the generic apology",
		}, []string{"path"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Latency of chat and booking requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.conditionsTotal, m.bookingsTotal, m.errorsTotal, m.requestLatency)
	return m
}

func (m *TriageMetrics) ObserveTurn(fromStage, toStage string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(fromStage, toStage).Inc()
}

func (m *TriageMetrics) ObserveCondition(condition string) {
	if m == nil {
		return
	}
	m.conditionsTotal.WithLabelValues(condition).Inc()
}

func (m *TriageMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *TriageMetrics) ObserveError(path string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(path).Inc()
}

func (m *TriageMetrics) ObserveLatency(path string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(path).Observe(seconds)
}
