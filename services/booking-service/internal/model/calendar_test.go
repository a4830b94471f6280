package model

import (
	"testing"
	"time"
)

func TestWeekdayOfStartsMonday(t *testing.T) {
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if got := WeekdayOf(monday); got != Monday {
		t.Fatalf("expected Monday, got %d", got)
	}
	if got := WeekdayOf(monday.AddDate(0, 0, 6)); got != Sunday {
		t.Fatalf("expected Sunday, got %d", got)
	}
}

func TestClockTime(t *testing.T) {
	c, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if c != Clock(9, 30) || c.String() != "09:30" {
		t.Fatalf("unexpected clock %v", c)
	}
	if _, err := ParseClock("9h"); err == nil {
		t.Fatal("expected malformed clock to fail")
	}
	loc := time.FixedZone("UTC+2", 2*3600)
	at := c.On(2026, time.March, 2, loc)
	if at.Hour() != 9 || at.Minute() != 30 || at.Location() != loc {
		t.Fatalf("unexpected anchored time %s", at)
	}
}

func TestRuleValidity(t *testing.T) {
	if !(WeeklyRule{Weekday: Monday, Start: Clock(9, 0), End: Clock(17, 0)}).Valid() {
		t.Fatal("expected 09-17 to be valid")
	}
	if (WeeklyRule{Weekday: Monday, Start: Clock(17, 0), End: Clock(9, 0)}).Valid() {
		t.Fatal("expected inverted rule to be invalid")
	}
	if (WeeklyRule{Weekday: 7, Start: Clock(9, 0), End: Clock(10, 0)}).Valid() {
		t.Fatal("expected weekday 7 to be invalid")
	}
}
