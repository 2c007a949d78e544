package prayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrSettingsNotSaved marks ApplySettings failures that happened before the
// settings were persisted.
var ErrSettingsNotSaved = errors.New("failed to save settings")

func (s *Scheduler) Settings(ctx context.Context, userID int64) (*models.Settings, error) {
	return s.settings.GetOrCreate(ctx, userID)
}

// ApplySettings persists next and brings the user's alarms in line with it.
// A nil old is loaded from the store. The settings stay saved even when the
// follow-up scheduling fails; that error is returned for the caller to report.
func (s *Scheduler) ApplySettings(ctx context.Context, userID int64, old, next *models.Settings) error {
	if old == nil {
		current, err := s.settings.GetOrCreate(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSettingsNotSaved, err)
		}
		old = current
	}

	next.UserID = userID
	if next.Timezone == "" {
		next.Timezone = old.Timezone
	}
	next.Normalize()
	if err := s.settings.Update(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", ErrSettingsNotSaved, err)
	}

	now := s.now()
	var errs []error

	switch {
	case old.City != next.City || old.Country != next.Country || old.Method != next.Method:
		// The old location's times must not be rescheduled if the refetch fails.
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Warn().Err(err).Int64("user", userID).Msg("Failed to invalidate cached timetable")
		}
		if err := s.ScheduleDailyRefresh(ctx, userID, now); err != nil {
			errs = append(errs, err)
		}
	case old.PrePrayerMinutes != next.PrePrayerMinutes || old.PrePrayerEnabled != next.PrePrayerEnabled:
		if err := s.rescheduleFromCache(ctx, userID, now); err != nil {
			errs = append(errs, err)
		}
	}

	if old.SalahReminder != next.SalahReminder || old.SalahReminderHours != next.SalahReminderHours {
		if err := s.syncRecurring(ctx, next); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// UpdateRecurring toggles the recurring nudge and sets its period in hours.
func (s *Scheduler) UpdateRecurring(ctx context.Context, userID int64, enabled bool, hours int) error {
	old, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	next := *old
	next.SalahReminder = enabled
	if hours > 0 {
		next.SalahReminderHours = hours
	}
	return s.ApplySettings(ctx, userID, old, &next)
}

// Bootstrap prepares a new or returning user: default settings, today's
// alarms with the refresh chain, and the recurring nudge when enabled.
func (s *Scheduler) Bootstrap(ctx context.Context, userID int64) error {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var errs []error
	if err := s.ScheduleDailyRefresh(ctx, userID, s.now()); err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("Initial refresh failed, retrying later")
		retry := models.AlarmOptions{Delay: RefreshRetryDelay}
		if rerr := s.timers.Create(ctx, userID, models.DailyRefreshAlarm(), retry); rerr != nil {
			errs = append(errs, rerr)
		}
		errs = append(errs, err)
	}
	if err := s.syncRecurring(ctx, settings); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TodayTimetable returns the cached timetable when it is for today in its
// own timezone and matches the user's location, otherwise fetches and caches
// a fresh one.
func (s *Scheduler) TodayTimetable(ctx context.Context, userID int64, now time.Time) (*models.Timetable, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("Timetable cache unavailable")
	}
	if cached != nil && cached.IsFor(now) && cached.City == settings.City && cached.Country == settings.Country {
		return cached, nil
	}

	tt, err := s.fetch(ctx, settings)
	if err != nil {
		if cached != nil {
			log.Warn().Err(err).Int64("user", userID).Msg("Serving stale timetable")
			return cached, nil
		}
		return nil, err
	}
	if err := s.cache.Set(ctx, userID, tt); err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("Failed to cache timetable")
	}
	s.adoptTimezone(ctx, settings, tt)
	return tt, nil
}

// NextPrayer returns the first prayer after now, or the first prayer of
// tomorrow once today's have passed.
func (s *Scheduler) NextPrayer(ctx context.Context, userID int64, now time.Time) (models.Prayer, time.Time, error) {
	tt, err := s.TodayTimetable(ctx, userID, now)
	if err != nil {
		return "", time.Time{}, err
	}
	p, at, ok := tt.NextPrayer(now)
	if !ok {
		return "", time.Time{}, ErrNoTimetable
	}
	return p, at, nil
}

func (s *Scheduler) syncRecurring(ctx context.Context, settings *models.Settings) error {
	if settings.SalahReminder {
		return s.SetRecurringReminder(ctx, settings.UserID, settings.RecurringPeriodMinutes())
	}
	return s.CancelRecurringReminder(ctx, settings.UserID)
}
