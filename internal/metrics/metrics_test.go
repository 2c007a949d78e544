package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())

	m.AlarmFired("main")
	m.AlarmFired("main")
	m.AlarmFailed("refresh")
	m.NotificationSent("telegram", nil)
	m.NotificationSent("telegram", errors.New("boom"))
	m.TimetableFetched(errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.alarmsFired.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alarmFailures.WithLabelValues("refresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("telegram", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("telegram", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timetableFetches.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AlarmFired("main")
		m.AlarmFailed("main")
		m.NotificationSent("mqtt", nil)
		m.TimetableFetched(nil)
	})
}
