package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds the optional Postgres connection. With an empty DSN
// the server runs without persistence and finished games are discarded.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// GameConfig holds timer defaults applied when a client creates a game
// without overriding them.
type GameConfig struct {
	TickInterval           time.Duration `mapstructure:"tick_interval"`
	DefaultTurnDuration    time.Duration `mapstructure:"default_turn_duration"`
	DefaultReserveDuration time.Duration `mapstructure:"default_reserve_duration"`
	DefaultBankUnusedTime  bool          `mapstructure:"default_bank_unused_time"`
}

// Load reads configuration from the given file, environment variables
// prefixed with TURNCLOCK_, and built-in defaults, in that order of
// precedence. A missing file is not an error; defaults and the environment
// still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8089")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("game.tick_interval", 100*time.Millisecond)
	v.SetDefault("game.default_turn_duration", 2*time.Minute)
	v.SetDefault("game.default_reserve_duration", time.Minute)
	v.SetDefault("game.default_bank_unused_time", false)

	v.SetEnvPrefix("TURNCLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Game.TickInterval)
	}
	if c.Game.DefaultTurnDuration <= 0 {
		return fmt.Errorf("default turn duration must be positive, got %s", c.Game.DefaultTurnDuration)
	}
	if c.Game.DefaultReserveDuration < 0 {
		return fmt.Errorf("default reserve duration must not be negative, got %s", c.Game.DefaultReserveDuration)
	}
	return nil
}
