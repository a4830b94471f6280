package main

import (
	"testing"
	"time"
)

func TestLoadConfigMemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CATALOG_SEED_FILE", "/etc/bookora/catalog.json")
	t.Setenv("TIMEZONE", "Asia/Dhaka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Policy.Step != 30*time.Minute || cfg.Policy.Buffer != 15*time.Minute || cfg.Policy.LeadTime != 2*time.Hour {
		t.Fatalf("unexpected policy %+v", cfg.Policy)
	}
	if cfg.Location.String() != "Asia/Dhaka" {
		t.Fatalf("unexpected location %s", cfg.Location)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.SeedFile != "/etc/bookora/catalog.json" {
		t.Fatalf("unexpected seed file %q", cfg.SeedFile)
	}
	if cfg.LockTimeout != 5*time.Second {
		t.Fatalf("unexpected lock timeout %s", cfg.LockTimeout)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected DATABASE_URL to be required for postgres")
	}

	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CATALOG_SEED_FILE", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected memory driver to require a catalog seed")
	}

	t.Setenv("CATALOG_SEED_FILE", "/etc/bookora/catalog.json")
	t.Setenv("SLOT_STEP", "0")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected zero step to fail")
	}
}
