package config

import (
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Query.DefaultTerm != "18" {
		t.Errorf("DefaultTerm = %q, want 18", cfg.Query.DefaultTerm)
	}
	if cfg.Cache.MaxEntries != 2000 {
		t.Errorf("MaxEntries = %d, want 2000", cfg.Cache.MaxEntries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Query.DefaultTerm = "both"
	cfg.Cache.MaxEntries = 500
	cfg.Logging.Level = "debug"
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if loaded.Query.DefaultTerm != "both" {
		t.Errorf("DefaultTerm = %q, want both", loaded.Query.DefaultTerm)
	}
	if loaded.Cache.MaxEntries != 500 {
		t.Errorf("MaxEntries = %d, want 500", loaded.Cache.MaxEntries)
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", loaded.Logging.Level)
	}
	// Fields absent from the file keep their defaults.
	if loaded.Cache.LongTtlSeconds != 86400 {
		t.Errorf("LongTtlSeconds = %d, want default", loaded.Cache.LongTtlSeconds)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Query.DefaultTerm = "19"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an unknown default term")
	}

	cfg = DefaultConfig()
	cfg.Cache.MemoryFraction = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a memory fraction above 1")
	}

	cfg = DefaultConfig()
	cfg.Cache.MaxEntries = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a non-positive entry bound")
	}
}
