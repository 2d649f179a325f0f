package config

import (
	"log/slog"
	"testing"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":3001" {
		t.Errorf("HTTPAddr = %q, want :3001", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" || cfg.MDNSEnabled || cfg.RoomNameLength != 5 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("COLLABBOARD_HTTP_ADDR", ":9999")
	t.Setenv("COLLABBOARD_LOG_LEVEL", "debug")
	t.Setenv("COLLABBOARD_MDNS_ENABLED", "true")
	t.Setenv("COLLABBOARD_ROOM_NAME_LENGTH", "8")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.LogLevel != "debug" || !cfg.MDNSEnabled || cfg.RoomNameLength != 8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadFromEnvRejectsBadRoomNameLength(t *testing.T) {
	t.Setenv("COLLABBOARD_ROOM_NAME_LENGTH", "-1")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for negative ROOM_NAME_LENGTH")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for name, want := range cases {
		c := Config{LogLevel: name}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
