package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when a calendar, service or booking does not exist.
var ErrNotFound = errors.New("not found")

// Weekday numbers days from Monday=0 to Sunday=6, the convention the admin tooling stores.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ClockTime is a time of day expressed as minutes after midnight.
type ClockTime int

func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On anchors the clock time on the given civil date in loc.
func (c ClockTime) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour(), c.Minute(), 0, 0, loc)
}

// WeeklyRule is one recurring open-hours window. Rules on the same weekday may overlap.
type WeeklyRule struct {
	Weekday Weekday
	Start   ClockTime
	End     ClockTime
}

func (r WeeklyRule) Valid() bool {
	return r.Weekday.Valid() && r.Start >= 0 && r.End > r.Start && r.End <= Clock(24, 0)
}

// Calendar is the single schedule a provider owns.
type Calendar struct {
	ID         string
	ProviderID string
	Name       string
	Rules      []WeeklyRule
}

// RulesFor returns the rules that apply on weekday d.
func (c Calendar) RulesFor(d Weekday) []WeeklyRule {
	var out []WeeklyRule
	for _, r := range c.Rules {
		if r.Weekday == d {
			out = append(out, r)
		}
	}
	return out
}

type Blackout struct {
	ID         string
	CalendarID string
	Start      time.Time
	End        time.Time
	Reason     string
}

type Service struct {
	ID         string
	CalendarID string
	Name       string
	Duration   time.Duration
	Active     bool
}
