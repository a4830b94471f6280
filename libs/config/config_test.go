package config

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("SLOT_BUFFER", "20")
	d, err := Duration("SLOT_BUFFER", time.Minute)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 20*time.Minute {
		t.Fatalf("expected bare number to mean minutes, got %s", d)
	}

	t.Setenv("SLOT_BUFFER", "1h30m")
	d, err = Duration("SLOT_BUFFER", time.Minute)
	if err != nil || d != 90*time.Minute {
		t.Fatalf("expected 90m, got %s (err %v)", d, err)
	}

	t.Setenv("SLOT_BUFFER", "soon")
	if _, err := Duration("SLOT_BUFFER", time.Minute); err == nil {
		t.Fatal("expected error for garbage duration")
	}

	d, err = Duration("UNSET_DURATION_KEY", 2*time.Hour)
	if err != nil || d != 2*time.Hour {
		t.Fatalf("expected fallback, got %s (err %v)", d, err)
	}
}

func TestPortAndInt(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "8083"); err == nil {
		t.Fatal("expected out of range port to fail")
	}
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-3")
	if _, err := Int("RATE_LIMIT_PER_MINUTE", 60); err == nil {
		t.Fatal("expected negative int to fail")
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	got := List("KAFKA_BROKERS", "")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected list %v", got)
	}
	t.Setenv("DB_AUTO_MIGRATE", "yes")
	if !Bool("DB_AUTO_MIGRATE", false) {
		t.Fatal("expected yes to be truthy")
	}
	t.Setenv("DB_AUTO_MIGRATE", "maybe")
	if Bool("DB_AUTO_MIGRATE", false) {
		t.Fatal("expected unknown value to use fallback")
	}
}

func TestLocation(t *testing.T) {
	loc, err := Location("UNSET_TZ_KEY", "UTC")
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC, got %v (err %v)", loc, err)
	}
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Location("TIMEZONE", "UTC"); err == nil {
		t.Fatal("expected unknown zone to fail")
	}
}
