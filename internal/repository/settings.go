package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hray3182/Nuhyi/internal/database"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/jackc/pgx/v5"
)

type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = `user_id, city, country, method, timezone, azan_sound, azan_audio,
	salah_reminder, salah_reminder_hours, pre_prayer_minutes, pre_prayer_enabled,
	snooze_minutes, updated_at`

func scanSettings(row pgx.Row) (*models.Settings, error) {
	s := &models.Settings{}
	err := row.Scan(
		&s.UserID,
		&s.City,
		&s.Country,
		&s.Method,
		&s.Timezone,
		&s.AzanSound,
		&s.AzanAudio,
		&s.SalahReminder,
		&s.SalahReminderHours,
		&s.PrePrayerMinutes,
		&s.PrePrayerEnabled,
		&s.SnoozeMinutes,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	s.Normalize()
	return s, nil
}

// GetOrCreate retrieves user settings, creating default settings if none exist.
// The user row is created alongside so the foreign key holds for users that
// arrive through the HTTP API.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Settings, error) {
	if _, err := r.db.Pool.Exec(ctx,
		`INSERT INTO "user" (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return nil, err
	}

	return scanSettings(r.db.Pool.QueryRow(ctx,
		`INSERT INTO user_settings (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING `+settingsColumns,
		userID,
	))
}

// Update persists the whole record; concurrent writers are last-writer-wins.
func (r *SettingsRepository) Update(ctx context.Context, s *models.Settings) error {
	s.UpdatedAt = time.Now()
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE user_settings SET
		    city = $1,
		    country = $2,
		    method = $3,
		    timezone = $4,
		    azan_sound = $5,
		    azan_audio = $6,
		    salah_reminder = $7,
		    salah_reminder_hours = $8,
		    pre_prayer_minutes = $9,
		    pre_prayer_enabled = $10,
		    snooze_minutes = $11,
		    updated_at = $12
		 WHERE user_id = $13`,
		s.City,
		s.Country,
		s.Method,
		s.Timezone,
		s.AzanSound,
		s.AzanAudio,
		s.SalahReminder,
		s.SalahReminderHours,
		s.PrePrayerMinutes,
		s.PrePrayerEnabled,
		s.SnoozeMinutes,
		s.UpdatedAt,
		s.UserID,
	)
	return err
}
