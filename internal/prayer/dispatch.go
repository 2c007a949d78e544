package prayer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

// OnAlarm dispatches a fired alarm by kind. It is installed as the timer
// facility's handler.
func (s *Scheduler) OnAlarm(ctx context.Context, a models.Alarm) error {
	late := s.now().Sub(a.FireAt) > StaleAfter

	switch a.ID.Kind {
	case models.AlarmMain:
		if late {
			log.Info().Int64("user", a.UserID).Str("alarm", a.Name).Msg("Skipping late prayer notification")
			return s.rescheduleFromCache(ctx, a.UserID, s.now())
		}
		return s.OnMainAlarmFire(ctx, a.UserID, a.ID.Prayer)

	case models.AlarmPreAlert:
		if late {
			return nil
		}
		return s.OnPreAlertFire(ctx, a.UserID, a.ID.Prayer)

	case models.AlarmSnooze:
		if late {
			return nil
		}
		return s.notifier.Notify(ctx, a.UserID, snoozeNotification(a.ID.Prayer))

	case models.AlarmReminder:
		if late {
			return s.rearmReminder(ctx, a.UserID, a.ID.ReminderID)
		}
		return s.OnReminderFire(ctx, a.UserID, a.ID.ReminderID)

	case models.AlarmDailyRefresh:
		err := s.ScheduleDailyRefresh(ctx, a.UserID, s.now())
		if err == nil {
			return nil
		}
		retry := models.AlarmOptions{Delay: RefreshRetryDelay}
		if rerr := s.timers.Create(ctx, a.UserID, models.DailyRefreshAlarm(), retry); rerr != nil {
			return errors.Join(err, rerr)
		}
		return fmt.Errorf("daily refresh failed, retrying in %s: %w", RefreshRetryDelay, err)

	case models.AlarmRecurring:
		return s.onRecurringFire(ctx, a.UserID)

	default:
		log.Warn().Int64("user", a.UserID).Str("alarm", a.Name).Msg("Unknown alarm kind")
		return nil
	}
}

// OnMainAlarmFire sends the call to prayer and rebuilds the prayer alarms
// from the cached timetable so tomorrow's alarm exists even when the daily
// refresh is late.
func (s *Scheduler) OnMainAlarmFire(ctx context.Context, userID int64, p models.Prayer) error {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := s.notifier.Notify(ctx, userID, mainNotification(p, settings)); err != nil {
		log.Warn().Err(err).Int64("user", userID).Str("prayer", string(p)).Msg("Prayer notification not fully delivered")
	}
	return s.rescheduleFromCache(ctx, userID, s.now())
}

// OnPreAlertFire announces that p is the user's lead time away.
func (s *Scheduler) OnPreAlertFire(ctx context.Context, userID int64, p models.Prayer) error {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return s.notifier.Notify(ctx, userID, preAlertNotification(p, settings.PrePrayerMinutes))
}

// Snooze repeats the call to p after the user's snooze time.
func (s *Scheduler) Snooze(ctx context.Context, userID int64, p models.Prayer) (int, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings: %w", err)
	}
	delay := models.AlarmOptions{Delay: minutes(settings.SnoozeMinutes)}
	if err := s.timers.Create(ctx, userID, models.SnoozeAlarm(p), delay); err != nil {
		return 0, err
	}
	return settings.SnoozeMinutes, nil
}

func (s *Scheduler) onRecurringFire(ctx context.Context, userID int64) error {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.SalahReminder {
		return s.CancelRecurringReminder(ctx, userID)
	}
	return s.notifier.Notify(ctx, userID, salawatNotification(s.intn))
}
