package models

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCity               = "Mecca"
	DefaultCountry            = "Saudi Arabia"
	DefaultMethod             = 2 // ISNA
	DefaultAzanAudio          = "makkah"
	DefaultPrePrayerMinutes   = 10
	DefaultSalahReminderHours = 2
	DefaultSnoozeMinutes      = 5
)

// AzanAudios are the recordings a connected speaker can play.
var AzanAudios = []string{"makkah", "madinah", "alaqsa"}

// Settings holds a user's preferences. It is read and written as a whole.
type Settings struct {
	UserID             int64     `json:"user_id"`
	City               string    `json:"city"`
	Country            string    `json:"country"`
	Method             int       `json:"method"`
	Timezone           string    `json:"timezone"`
	AzanSound          bool      `json:"azan_sound"`
	AzanAudio          string    `json:"azan_audio"`
	SalahReminder      bool      `json:"salah_reminder"`
	SalahReminderHours int       `json:"salah_reminder_hours"`
	PrePrayerMinutes   int       `json:"pre_prayer_minutes"`
	PrePrayerEnabled   bool      `json:"pre_prayer_enabled"`
	SnoozeMinutes      int       `json:"snooze_minutes"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewDefaultSettings creates settings with the values a new user starts with.
func NewDefaultSettings(userID int64) *Settings {
	return &Settings{
		UserID:             userID,
		City:               DefaultCity,
		Country:            DefaultCountry,
		Method:             DefaultMethod,
		AzanSound:          true,
		AzanAudio:          DefaultAzanAudio,
		SalahReminder:      true,
		SalahReminderHours: DefaultSalahReminderHours,
		PrePrayerMinutes:   DefaultPrePrayerMinutes,
		PrePrayerEnabled:   true,
		SnoozeMinutes:      DefaultSnoozeMinutes,
		UpdatedAt:          time.Now(),
	}
}

// Normalize replaces missing or out-of-range values with defaults. Rows
// written by older versions may lack columns that were added later.
func (s *Settings) Normalize() {
	if strings.TrimSpace(s.City) == "" {
		s.City = DefaultCity
	}
	if strings.TrimSpace(s.Country) == "" {
		s.Country = DefaultCountry
	}
	if s.Method < 0 {
		s.Method = DefaultMethod
	}
	if !isAzanAudio(s.AzanAudio) {
		s.AzanAudio = DefaultAzanAudio
	}
	if s.SalahReminderHours <= 0 {
		s.SalahReminderHours = DefaultSalahReminderHours
	}
	if s.PrePrayerMinutes < 0 {
		s.PrePrayerMinutes = DefaultPrePrayerMinutes
	}
	if s.SnoozeMinutes <= 0 {
		s.SnoozeMinutes = DefaultSnoozeMinutes
	}
}

// Location resolves the user's timezone.
func (s *Settings) Location() *time.Location {
	return LoadLocation(s.Timezone)
}

// RecurringPeriodMinutes is the period of the salah-on-the-prophet nudge.
func (s *Settings) RecurringPeriodMinutes() int {
	return s.SalahReminderHours * 60
}

// ParseLeadMinutes parses user input for the pre-alert lead time.
// Non-numeric or negative input yields the default; zero disables pre-alerts.
func ParseLeadMinutes(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 0 {
		return DefaultPrePrayerMinutes
	}
	return n
}

// ParseReminderHours parses user input for the recurring nudge frequency.
// Non-numeric or non-positive input yields the default.
func ParseReminderHours(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n <= 0 {
		return DefaultSalahReminderHours
	}
	return n
}

func isAzanAudio(name string) bool {
	for _, a := range AzanAudios {
		if a == name {
			return true
		}
	}
	return false
}
