package prayer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/rrule"
	"github.com/rs/zerolog/log"
)

var ErrEmptyReminder = errors.New("reminder text is empty")

// AddReminder stores a daily reminder and arms it for the next occurrence of
// clock in the user's timezone. A reminder that cannot be armed is not kept.
func (s *Scheduler) AddReminder(ctx context.Context, userID int64, text string, clock models.ClockTime) (*models.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReminder
	}

	r := &models.Reminder{UserID: userID, Text: text, Time: clock}
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}
	if err := s.armReminder(ctx, r); err != nil {
		if delErr := s.reminders.Delete(ctx, r.ReminderID, userID); delErr != nil {
			log.Error().Err(delErr).Int64("user", userID).Int("reminder", r.ReminderID).Msg("Failed to remove unarmed reminder")
		}
		return nil, err
	}
	return r, nil
}

func (s *Scheduler) ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	return s.reminders.GetByUserID(ctx, userID)
}

// RemoveReminder deletes the record and its pending alarm.
func (s *Scheduler) RemoveReminder(ctx context.Context, userID int64, reminderID int) error {
	if err := s.reminders.Delete(ctx, reminderID, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return s.timers.Clear(ctx, userID, models.ReminderAlarm(reminderID))
}

// OnReminderFire notifies and re-arms the reminder for the next day. A
// reminder removed in the meantime is ignored.
func (s *Scheduler) OnReminderFire(ctx context.Context, userID int64, reminderID int) error {
	r, err := s.lookupReminder(ctx, userID, reminderID)
	if err != nil || r == nil {
		return err
	}
	if err := s.notifier.Notify(ctx, userID, reminderNotification(r)); err != nil {
		log.Warn().Err(err).Int64("user", userID).Int("reminder", reminderID).Msg("Reminder not fully delivered")
	}
	return s.armReminder(ctx, r)
}

func (s *Scheduler) rearmReminder(ctx context.Context, userID int64, reminderID int) error {
	r, err := s.lookupReminder(ctx, userID, reminderID)
	if err != nil || r == nil {
		return err
	}
	return s.armReminder(ctx, r)
}

func (s *Scheduler) lookupReminder(ctx context.Context, userID int64, reminderID int) (*models.Reminder, error) {
	r, err := s.reminders.GetByID(ctx, reminderID, userID)
	if errors.Is(err, models.ErrNotFound) {
		log.Debug().Int64("user", userID).Int("reminder", reminderID).Msg("Reminder was removed")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder: %w", err)
	}
	return r, nil
}

func (s *Scheduler) armReminder(ctx context.Context, r *models.Reminder) error {
	settings, err := s.settings.GetOrCreate(ctx, r.UserID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	now := s.now()
	next, err := rrule.NextDaily(r.Time.Hour, r.Time.Minute, now.In(settings.Location()))
	if err != nil {
		return fmt.Errorf("failed to compute reminder time: %w", err)
	}
	return s.timers.Create(ctx, r.UserID, models.ReminderAlarm(r.ReminderID), models.AlarmOptions{Delay: next.Sub(now)})
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
