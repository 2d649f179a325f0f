package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the server's environment-driven configuration. Every field is
// read from a COLLABBOARD_-prefixed variable, with a .env file honored when
// present.
type Config struct {
	HTTPAddr       string `mapstructure:"HTTP_ADDR"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	MDNSEnabled    bool   `mapstructure:"MDNS_ENABLED"`
	RoomNameLength int    `mapstructure:"ROOM_NAME_LENGTH"`
}

const envPrefix = "COLLABBOARD"

// LoadFromEnv reads the configuration from the process environment.
func LoadFromEnv() (*Config, error) {
	// Missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MDNS_ENABLED", false)
	v.SetDefault("ROOM_NAME_LENGTH", 5)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.RoomNameLength <= 0 {
		return nil, fmt.Errorf("ROOM_NAME_LENGTH must be positive, got %d", cfg.RoomNameLength)
	}
	return &cfg, nil
}

// SlogLevel maps the configured level name onto slog's scale. Unknown
// names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("http_addr=%s log_level=%s mdns=%t room_name_length=%d",
		c.HTTPAddr, c.LogLevel, c.MDNSEnabled, c.RoomNameLength)
}
