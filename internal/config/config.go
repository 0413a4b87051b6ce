// Package config loads server configuration from an optional YAML file and
// DUEL_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Replay   ReplayConfig   `mapstructure:"replay"`
}

type ServerConfig struct {
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type GRPCConfig struct {
	Address              string        `mapstructure:"address"`
	MaxConcurrentStreams int           `mapstructure:"max_concurrent_streams"`
	KeepaliveTime        time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout     time.Duration `mapstructure:"keepalive_timeout"`
}

type WebSocketConfig struct {
	Address        string        `mapstructure:"address"`
	Path           string        `mapstructure:"path"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
}

// DatabaseConfig selects the match store. An empty URL keeps matches in
// memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds the match rules.
type GameConfig struct {
	GCDBaseline         int `mapstructure:"gcd_baseline"`
	DrawPerTurn         int `mapstructure:"draw_per_turn"`
	StartingHand        int `mapstructure:"starting_hand"`
	EventRetentionTurns int `mapstructure:"event_retention_turns"`
}

// ReplayConfig enables replay files when Dir is set.
type ReplayConfig struct {
	Dir string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 1000)
	v.SetDefault("server.grpc.keepalive_time", 30*time.Second)
	v.SetDefault("server.grpc.keepalive_timeout", 10*time.Second)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.ping_interval", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.gcd_baseline", 3)
	v.SetDefault("game.draw_per_turn", 1)
	v.SetDefault("game.starting_hand", 6)
	v.SetDefault("game.event_retention_turns", 0)

	v.SetDefault("replay.dir", "")
}

// Load reads configuration from path when it exists, then applies
// environment overrides such as DUEL_DATABASE_URL or DUEL_LOGGING_LEVEL. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.GRPC.Address == "":
		return errors.New("server.grpc.address is required")
	case c.Game.GCDBaseline < 1:
		return fmt.Errorf("game.gcd_baseline must be at least 1, got %d", c.Game.GCDBaseline)
	case c.Game.DrawPerTurn < 0:
		return fmt.Errorf("game.draw_per_turn must not be negative, got %d", c.Game.DrawPerTurn)
	case c.Game.StartingHand < 0:
		return fmt.Errorf("game.starting_hand must not be negative, got %d", c.Game.StartingHand)
	case c.Game.EventRetentionTurns < 0:
		return fmt.Errorf("game.event_retention_turns must not be negative, got %d", c.Game.EventRetentionTurns)
	}
	return nil
}
