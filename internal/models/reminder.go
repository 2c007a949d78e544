package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Reminder is a user-defined daily reminder. Firing re-arms it for the next
// day; only explicit removal deletes it.
type Reminder struct {
	ReminderID int       `json:"reminder_id"`
	UserID     int64     `json:"user_id"`
	Text       string    `json:"text"`
	Time       ClockTime `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
}
