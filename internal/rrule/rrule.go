package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Daily returns the RFC 5545 rule for a reminder repeating every day at hour:minute.
func Daily(hour, minute int) string {
	return fmt.Sprintf("FREQ=DAILY;BYHOUR=%d;BYMINUTE=%d;BYSECOND=0", hour, minute)
}

// ParseRRule parses an RFC 5545 RRULE string anchored at dtstart.
// The rule is evaluated in dtstart's location.
func ParseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// NextOccurrence returns the first occurrence strictly after the given time,
// or nil when the rule has no more occurrences.
func NextOccurrence(ruleStr string, dtstart time.Time, after time.Time) (*time.Time, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// NextDaily returns the next instant strictly after `after` whose wall clock
// in after's location reads hour:minute. A time equal to `after` rolls to the
// following day.
func NextDaily(hour, minute int, after time.Time) (time.Time, error) {
	dtstart := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, after.Location())
	next, err := NextOccurrence(Daily(hour, minute), dtstart, after)
	if err != nil {
		return time.Time{}, err
	}
	if next == nil {
		return time.Time{}, fmt.Errorf("no occurrence after %s", after.Format(time.RFC3339))
	}
	return *next, nil
}
