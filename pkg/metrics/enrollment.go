package metrics

import "github.com/prometheus/client_golang/prometheus"

// EnrollmentMetrics counts lifecycle activity on enrollments.
type EnrollmentMetrics struct {
	created     prometheus.Counter
	transitions *prometheus.CounterVec
}

// NewEnrollmentMetrics registers the enrollment counters on the provided registerer.
func NewEnrollmentMetrics(reg prometheus.Registerer) *EnrollmentMetrics {
	if reg == nil {
		return &EnrollmentMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollments_created_total",
		Help: "Enrollments created in Pending state.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_status_transitions_total",
		Help: "Enrollment status changes applied by admins.",
	}, []string{"from", "to"})
	reg.MustRegister(created, transitions)
	return &EnrollmentMetrics{
		created:     created,
		transitions: transitions,
	}
}

// IncCreated counts a new enrollment.
func (m *EnrollmentMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// IncTransition counts a status change.
func (m *EnrollmentMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
