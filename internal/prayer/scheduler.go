package prayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/Nuhyi/internal/metrics"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// RefreshOffset is how long after local midnight the daily refresh runs.
	RefreshOffset = time.Minute
	// RefreshRetryDelay re-arms a failed daily refresh.
	RefreshRetryDelay = 15 * time.Minute
	// DefaultRecurringMinutes applies when a non-positive period is requested.
	DefaultRecurringMinutes = models.DefaultSalahReminderHours * 60
	// StaleAfter is how late a prayer or reminder alarm may fire before its
	// notification is dropped, e.g. after the service was down.
	StaleAfter = 30 * time.Minute
)

var (
	ErrNoTimetable      = errors.New("no timetable available")
	ErrReminderNotFound = fmt.Errorf("reminder %w", models.ErrNotFound)
)

// Timers is the persistent named-timer facility.
type Timers interface {
	Create(ctx context.Context, userID int64, id models.AlarmID, opts models.AlarmOptions) error
	Clear(ctx context.Context, userID int64, id models.AlarmID) error
	List(ctx context.Context, userID int64) ([]models.Alarm, error)
}

type TimetableSource interface {
	FetchTimetable(ctx context.Context, city, country string, method int) (*models.Timetable, error)
}

// TimetableCache returns nil, nil when nothing is cached for the user.
type TimetableCache interface {
	Get(ctx context.Context, userID int64) (*models.Timetable, error)
	Set(ctx context.Context, userID int64, tt *models.Timetable) error
	Invalidate(ctx context.Context, userID int64) error
}

type SettingsStore interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) error
}

type ReminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, reminderID int, userID int64) (*models.Reminder, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error)
	Delete(ctx context.Context, reminderID int, userID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, n models.Notification) error
}

type Deps struct {
	Timers    Timers
	Source    TimetableSource
	Cache     TimetableCache
	Settings  SettingsStore
	Reminders ReminderStore
	Notifier  Notifier
	Metrics   *metrics.Metrics
	// Clock and Rand default to time.Now and math/rand/v2.
	Clock func() time.Time
	Rand  func(int) int
}

// Scheduler keeps each user's prayer alarms, daily refresh, recurring nudge
// and reminders in the timer facility.
type Scheduler struct {
	timers    Timers
	source    TimetableSource
	cache     TimetableCache
	settings  SettingsStore
	reminders ReminderStore
	notifier  Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
	intn      func(int) int
}

func New(d Deps) *Scheduler {
	s := &Scheduler{
		timers:    d.Timers,
		source:    d.Source,
		cache:     d.Cache,
		settings:  d.Settings,
		reminders: d.Reminders,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		now:       d.Clock,
		intn:      d.Rand,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ScheduleDailyAlarms replaces the user's main and pre-alert alarms with one
// pair per prayer in tt. Prayer times that are not after now roll to the same
// wall-clock time tomorrow. The new set is written over the old one by name
// and leftovers are cleared only afterwards, so a failing timer store never
// leaves the user with fewer prayer alarms than before.
func (s *Scheduler) ScheduleDailyAlarms(ctx context.Context, userID int64, tt *models.Timetable, now time.Time, leadMinutes int, enabled bool) error {
	if tt == nil || len(tt.Times) == 0 {
		return ErrNoTimetable
	}

	pending, err := s.timers.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list alarms: %w", err)
	}

	local := now.In(tt.Location())
	lead := time.Duration(leadMinutes) * time.Minute
	armed := make(map[models.AlarmID]bool, 2*len(models.Prayers))

	for _, p := range models.Prayers {
		ct, ok := tt.Times[p]
		if !ok {
			continue
		}
		at := ct.On(local)
		if !at.After(local) {
			at = ct.On(local.AddDate(0, 0, 1))
		}
		delay := at.Sub(now)

		if err := s.timers.Create(ctx, userID, models.MainAlarm(p), models.AlarmOptions{Delay: delay}); err != nil {
			return err
		}
		armed[models.MainAlarm(p)] = true
		if enabled && lead > 0 && delay > lead {
			if err := s.timers.Create(ctx, userID, models.PreAlertAlarm(p), models.AlarmOptions{Delay: delay - lead}); err != nil {
				return err
			}
			armed[models.PreAlertAlarm(p)] = true
		}
	}

	for _, a := range pending {
		if !a.ID.IsPrayerAlarm() || armed[a.ID] {
			continue
		}
		if err := s.timers.Clear(ctx, userID, a.ID); err != nil {
			return err
		}
	}

	log.Debug().Int64("user", userID).Str("date", tt.Date).Msg("Scheduled prayer alarms")
	return nil
}

// ScheduleDailyRefresh fetches today's timetable, caches it, rebuilds the
// prayer alarms and arms the next refresh for local midnight plus
// RefreshOffset. A fetch failure returns before any alarm is touched.
func (s *Scheduler) ScheduleDailyRefresh(ctx context.Context, userID int64, now time.Time) error {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	tt, err := s.fetch(ctx, settings)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, userID, tt); err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("Failed to cache timetable")
	}
	s.adoptTimezone(ctx, settings, tt)

	if err := s.ScheduleDailyAlarms(ctx, userID, tt, now, settings.PrePrayerMinutes, settings.PrePrayerEnabled); err != nil {
		return err
	}

	next := NextRefresh(now, tt.Location())
	if err := s.timers.Create(ctx, userID, models.DailyRefreshAlarm(), models.AlarmOptions{Delay: next.Sub(now)}); err != nil {
		return err
	}

	log.Info().Int64("user", userID).Str("city", tt.City).Time("next_refresh", next).Msg("Prayer times refreshed")
	return nil
}

// NextRefresh returns local midnight after now, plus RefreshOffset.
func NextRefresh(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc).Add(RefreshOffset)
}

// SetRecurringReminder installs the salah-on-the-prophet nudge. A
// non-positive period falls back to DefaultRecurringMinutes.
func (s *Scheduler) SetRecurringReminder(ctx context.Context, userID int64, periodMinutes int) error {
	if periodMinutes <= 0 {
		periodMinutes = DefaultRecurringMinutes
	}
	period := time.Duration(periodMinutes) * time.Minute
	return s.timers.Create(ctx, userID, models.RecurringAlarm(), models.AlarmOptions{Delay: period, Period: period})
}

func (s *Scheduler) CancelRecurringReminder(ctx context.Context, userID int64) error {
	return s.timers.Clear(ctx, userID, models.RecurringAlarm())
}

// PendingAlarms lists the user's alarms ordered by fire time.
func (s *Scheduler) PendingAlarms(ctx context.Context, userID int64) ([]models.Alarm, error) {
	return s.timers.List(ctx, userID)
}

func (s *Scheduler) fetch(ctx context.Context, settings *models.Settings) (*models.Timetable, error) {
	tt, err := s.source.FetchTimetable(ctx, settings.City, settings.Country, settings.Method)
	s.metrics.TimetableFetched(err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timetable for %s, %s: %w", settings.City, settings.Country, err)
	}
	return tt, nil
}

// adoptTimezone stores the timetable's zone on the settings so reminders use
// the same wall clock as prayers.
func (s *Scheduler) adoptTimezone(ctx context.Context, settings *models.Settings, tt *models.Timetable) {
	if tt.Timezone == "" || tt.Timezone == settings.Timezone {
		return
	}
	settings.Timezone = tt.Timezone
	if err := s.settings.Update(ctx, settings); err != nil {
		log.Warn().Err(err).Int64("user", settings.UserID).Msg("Failed to store timezone")
	}
}

// rescheduleFromCache rebuilds prayer alarms from the cached timetable, or
// runs a full refresh when nothing is cached.
func (s *Scheduler) rescheduleFromCache(ctx context.Context, userID int64, now time.Time) error {
	tt, err := s.cache.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read cached timetable: %w", err)
	}
	if tt == nil {
		log.Info().Int64("user", userID).Msg("No cached timetable, refreshing")
		return s.ScheduleDailyRefresh(ctx, userID, now)
	}

	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	return s.ScheduleDailyAlarms(ctx, userID, tt, now, settings.PrePrayerMinutes, settings.PrePrayerEnabled)
}
