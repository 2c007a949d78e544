package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for alarm dispatch and notification delivery.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	alarmsFired      *prometheus.CounterVec
	alarmFailures    *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	timetableFetches *prometheus.CounterVec
}

// MustNew registers the collectors with reg. Registration errors panic, which
// surfaces duplicate wiring at startup.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		alarmsFired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nuhyi",
				Subsystem: "alarm",
				Name:      "fired_total",
				Help:      "Alarms dispatched to their handler, by kind.",
			},
			[]string{"kind"},
		),
		alarmFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nuhyi",
				Subsystem: "alarm",
				Name:      "handler_failures_total",
				Help:      "Alarm handlers that returned an error, by kind.",
			},
			[]string{"kind"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nuhyi",
				Subsystem: "notify",
				Name:      "sent_total",
				Help:      "Notification deliveries, by sink and status.",
			},
			[]string{"sink", "status"},
		),
		timetableFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nuhyi",
				Subsystem: "timetable",
				Name:      "fetches_total",
				Help:      "Timetable fetches from the prayer-time source, by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.alarmsFired, m.alarmFailures, m.notifications, m.timetableFetches)
	return m
}

func (m *Metrics) AlarmFired(kind string) {
	if m == nil {
		return
	}
	m.alarmsFired.WithLabelValues(kind).Inc()
}

func (m *Metrics) AlarmFailed(kind string) {
	if m == nil {
		return
	}
	m.alarmFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationSent(sink string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(sink, status(err)).Inc()
}

func (m *Metrics) TimetableFetched(err error) {
	if m == nil {
		return
	}
	m.timetableFetches.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
