// Package config loads server configuration from a YAML file with
// environment variable overrides (CONFLICTOLOGY_ prefix).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig covers the listening surfaces and shutdown behavior.
type ServerConfig struct {
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

// WebSocketConfig configures the websocket boundary.
type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig configures the optional postgres snapshot store. When
// disabled the server runs on the in-memory store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig tunes boundary-layer game policy. The engine itself has no
// timers; a non-zero ResponseDeadline makes the dispatcher auto-pass
// laggard responders.
type GameConfig struct {
	ResponseDeadline time.Duration `mapstructure:"response_deadline"`
}

// Load reads the configuration file at path (optional) and applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.websocket.address", ":8089")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "postgres://localhost:5432/conflictology")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.response_deadline", time.Duration(0))

	v.SetEnvPrefix("CONFLICTOLOGY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults and env; anything
			// else (unreadable, malformed) is fatal.
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
