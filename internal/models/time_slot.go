package models

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the ISO day index used by time slots (1 = Monday ... 6 = Saturday).
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
}

// Valid reports whether d is within Monday..Saturday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Saturday
}

// String returns the English day name.
func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// TimeSlot is the atomic scheduling unit.
type TimeSlot struct {
	ID        string  `db:"id" json:"id"`
	DayOfWeek Weekday `db:"day_of_week" json:"day_of_week"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

// Label renders e.g. "Monday 09:00-10:00".
func (s TimeSlot) Label() string {
	return fmt.Sprintf("%s %s-%s", s.DayOfWeek, FormatClock(s.StartTime), FormatClock(s.EndTime))
}

// StartMinutes returns minutes past midnight of StartTime.
func (s TimeSlot) StartMinutes() (int, error) {
	return parseClock(s.StartTime)
}

// EndMinutes returns minutes past midnight of EndTime.
func (s TimeSlot) EndMinutes() (int, error) {
	return parseClock(s.EndTime)
}

// Before orders slots by day, then start time, then id.
func (s TimeSlot) Before(other TimeSlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return s.DayOfWeek < other.DayOfWeek
	}
	a, errA := s.StartMinutes()
	b, errB := other.StartMinutes()
	if errA == nil && errB == nil && a != b {
		return a < b
	}
	return s.ID < other.ID
}

var clockLayouts = []string{"15:04:05", "15:04"}

func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid clock value %q", raw)
}

// FormatClock renders a stored time as HH:MM, returning raw unchanged when it does not parse.
func FormatClock(raw string) string {
	minutes, err := parseClock(raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
