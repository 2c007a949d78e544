package models

import (
	"fmt"
	"time"
)

type AlarmKind string

const (
	AlarmMain         AlarmKind = "main"
	AlarmPreAlert     AlarmKind = "pre"
	AlarmSnooze       AlarmKind = "snooze"
	AlarmReminder     AlarmKind = "reminder"
	AlarmDailyRefresh AlarmKind = "refresh"
	AlarmRecurring    AlarmKind = "recurring"
)

// AlarmID identifies a pending alarm. Only the fields relevant to Kind are set.
type AlarmID struct {
	Kind       AlarmKind
	Prayer     Prayer
	ReminderID int
}

func MainAlarm(p Prayer) AlarmID     { return AlarmID{Kind: AlarmMain, Prayer: p} }
func PreAlertAlarm(p Prayer) AlarmID { return AlarmID{Kind: AlarmPreAlert, Prayer: p} }
func SnoozeAlarm(p Prayer) AlarmID   { return AlarmID{Kind: AlarmSnooze, Prayer: p} }
func ReminderAlarm(id int) AlarmID   { return AlarmID{Kind: AlarmReminder, ReminderID: id} }
func DailyRefreshAlarm() AlarmID     { return AlarmID{Kind: AlarmDailyRefresh} }
func RecurringAlarm() AlarmID        { return AlarmID{Kind: AlarmRecurring} }

// String is the storage key of the alarm, unique per user.
func (id AlarmID) String() string {
	switch id.Kind {
	case AlarmMain, AlarmPreAlert, AlarmSnooze:
		return string(id.Kind) + ":" + id.Prayer.Key()
	case AlarmReminder:
		return fmt.Sprintf("%s:%d", id.Kind, id.ReminderID)
	default:
		return string(id.Kind)
	}
}

// IsPrayerAlarm reports whether the alarm belongs to the per-prayer set that
// is rebuilt on every scheduling pass.
func (id AlarmID) IsPrayerAlarm() bool {
	return id.Kind == AlarmMain || id.Kind == AlarmPreAlert
}

type AlarmOptions struct {
	Delay  time.Duration
	Period time.Duration // zero for one-shot alarms
}

type Alarm struct {
	UserID    int64         `json:"user_id"`
	ID        AlarmID       `json:"-"`
	Name      string        `json:"name"`
	FireAt    time.Time     `json:"fire_at"`
	Period    time.Duration `json:"period"`
	CreatedAt time.Time     `json:"created_at"`
}

func (a Alarm) IsPeriodic() bool {
	return a.Period > 0
}
