package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's instruments. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry plumbing.
type Metrics struct {
	reservations  *prometheus.CounterVec
	payments      *prometheus.CounterVec
	deposits      *prometheus.CounterVec
	reminders     *prometheus.CounterVec
	cancellations prometheus.Counter
	sweepDuration prometheus.Histogram
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesthouse_reservations_total",
			Help: "Reservation create attempts by outcome.",
		}, []string{"outcome"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesthouse_payments_total",
			Help: "Payment attempts by outcome.",
		}, []string{"outcome"}),
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesthouse_deposits_total",
			Help: "Deposit attempts by outcome.",
		}, []string{"outcome"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesthouse_sweep_reminders_total",
			Help: "Reminder dispatches by result.",
		}, []string{"result"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_sweep_cancellations_total",
			Help: "Reservations cancelled by the timeout sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "guesthouse_sweep_duration_seconds",
			Help:    "Duration of one sweep run in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.reservations, m.payments, m.deposits, m.reminders,
		m.cancellations, m.sweepDuration, m.httpRequests, m.httpDuration,
	)
	return m
}

func (m *Metrics) Reservation(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Payment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Deposit(outcome string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reminder(result string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(result).Inc()
}

func (m *Metrics) Cancelled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cancellations.Add(float64(n))
}

func (m *Metrics) SweepDone(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) HTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
