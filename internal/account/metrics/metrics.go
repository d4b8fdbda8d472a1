// Package metrics provides observability for the account module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks account lifecycle counts and critical path durations.
type Metrics struct {
	Registrations    prometheus.Counter
	Logins           *prometheus.CounterVec
	ProfileUpdates   prometheus.Counter
	RegisterDuration prometheus.Histogram
	LoginDuration    prometheus.Histogram
}

// New creates a Metrics instance with all account module metrics registered
// on the default registry.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passport_registrations_total",
			Help: "Total number of accounts registered",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_logins_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		ProfileUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "passport_profile_updates_total",
			Help: "Total number of successful profile mutations",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "passport_register_duration_seconds",
			Help:    "Duration of register operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "passport_login_duration_seconds",
			Help:    "Duration of authenticate operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// IncrementLogin records a login attempt by result ("ok" or "failed").
func (m *Metrics) IncrementLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// IncrementProfileUpdated records a successful profile mutation.
func (m *Metrics) IncrementProfileUpdated() {
	if m == nil {
		return
	}
	m.ProfileUpdates.Inc()
}

// ObserveRegister records the duration of a register operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveLogin records the duration of an authenticate operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	if m == nil {
		return
	}
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
