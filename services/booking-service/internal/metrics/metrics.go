package metrics

import "github.com/prometheus/client_golang/prometheus"

// Results used as label values.
const (
	ResultOK       = "ok"
	ResultReplayed = "replayed"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultOutside  = "outside_schedule"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// BookingMetrics exposes counters and histograms for the booking flows.
type BookingMetrics struct {
	submissions   *prometheus.CounterVec
	slotQueries   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	slotsPerQuery prometheus.Histogram
	outboxEvents  prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by result",
		}, []string{"result"}),
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Name:      "slot_queries_total",
			Help:      "Available slot queries by result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions by target status",
		}, []string{"status"}),
		slotsPerQuery: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "apptbook",
			Name:      "slots_per_query",
			Help:      "Number of free slots returned per query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		outboxEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "apptbook",
			Name:      "outbox_events_published_total",
			Help:      "Outbox events written to Kafka",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.slotQueries, m.transitions, m.slotsPerQuery, m.outboxEvents)
	return m
}

func (m *BookingMetrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveSlotQuery(result string, slots int) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.slotsPerQuery.Observe(float64(slots))
	}
}

func (m *BookingMetrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveOutboxPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxEvents.Add(float64(n))
}
