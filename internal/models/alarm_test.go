package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlarmIDString(t *testing.T) {
	tests := []struct {
		id   AlarmID
		want string
	}{
		{MainAlarm(Fajr), "main:fajr"},
		{PreAlertAlarm(Isha), "pre:isha"},
		{SnoozeAlarm(Asr), "snooze:asr"},
		{ReminderAlarm(12), "reminder:12"},
		{DailyRefreshAlarm(), "refresh"},
		{RecurringAlarm(), "recurring"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.id.String())
	}
}

func TestIsPrayerAlarm(t *testing.T) {
	assert.True(t, MainAlarm(Dhuhr).IsPrayerAlarm())
	assert.True(t, PreAlertAlarm(Dhuhr).IsPrayerAlarm())
	assert.False(t, SnoozeAlarm(Dhuhr).IsPrayerAlarm())
	assert.False(t, DailyRefreshAlarm().IsPrayerAlarm())
}
