package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for timetable cache keys.
const DateLayout = "2006-01-02"

type Prayer string

const (
	Fajr    Prayer = "Fajr"
	Dhuhr   Prayer = "Dhuhr"
	Asr     Prayer = "Asr"
	Maghrib Prayer = "Maghrib"
	Isha    Prayer = "Isha"
)

// Prayers lists the five daily prayers in the order they occur.
var Prayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

var arabicNames = map[Prayer]string{
	Fajr:    "الفجر",
	Dhuhr:   "الظهر",
	Asr:     "العصر",
	Maghrib: "المغرب",
	Isha:    "العشاء",
}

// ParsePrayer matches a prayer name case-insensitively.
func ParsePrayer(s string) (Prayer, bool) {
	for _, p := range Prayers {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Key returns the lowercase form used in callback data and storage.
func (p Prayer) Key() string {
	return strings.ToLower(string(p))
}

func (p Prayer) ArabicName() string {
	if name, ok := arabicNames[p]; ok {
		return name
	}
	return string(p)
}

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM". Anything after the first space is ignored,
// which accepts the "05:12 (EET)" form some timetable sources return.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this clock time on the calendar day of t, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(data []byte) error {
	parsed, err := ParseClockTime(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Timetable holds one calendar day's prayer times for a location.
type Timetable struct {
	Date     string               `json:"date"` // DateLayout, in Timezone
	Timezone string               `json:"timezone"`
	City     string               `json:"city"`
	Country  string               `json:"country"`
	Times    map[Prayer]ClockTime `json:"times"`
}

// Location resolves the timetable's timezone, falling back to the server zone.
func (t *Timetable) Location() *time.Location {
	return LoadLocation(t.Timezone)
}

// IsFor reports whether the timetable belongs to the calendar day of now.
func (t *Timetable) IsFor(now time.Time) bool {
	return t.Date == now.In(t.Location()).Format(DateLayout)
}

// NextPrayer returns the first prayer strictly after now. When every prayer
// of today has passed, the earliest prayer is returned on the following day.
func (t *Timetable) NextPrayer(now time.Time) (Prayer, time.Time, bool) {
	local := now.In(t.Location())
	for _, p := range Prayers {
		ct, ok := t.Times[p]
		if !ok {
			continue
		}
		if at := ct.On(local); at.After(local) {
			return p, at, true
		}
	}
	for _, p := range Prayers {
		if ct, ok := t.Times[p]; ok {
			return p, ct.On(local.AddDate(0, 0, 1)), true
		}
	}
	return "", time.Time{}, false
}

// LoadLocation loads an IANA zone name, returning time.Local when it is empty or unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
