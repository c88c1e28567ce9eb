// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chat-minigame-bot/internal/game"
)

// Supported transports and storage drivers.
const (
	TransportTelegram = "telegram"
	TransportDiscord  = "discord"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Content   ContentConfig   `mapstructure:"content"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig selects the chat transport and holds its credentials.
type BotConfig struct {
	Transport     string `mapstructure:"transport"`
	TelegramToken string `mapstructure:"telegram_token"`
	DiscordToken  string `mapstructure:"discord_token"`
	Prefix        string `mapstructure:"prefix"` // Command prefix for Discord messages
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// StorageConfig selects the score backend.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	Timezone    string `mapstructure:"timezone"` // Day boundary for daily leaderboards
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// ContentConfig points at an optional puzzle catalog file.
type ContentConfig struct {
	Path string `mapstructure:"path"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	IdleAfter     time.Duration `mapstructure:"idle_after"`

	Hangman   GameConfig `mapstructure:"hangman"`
	Anagram   GameConfig `mapstructure:"anagram"`
	Voltorb   GameConfig `mapstructure:"voltorb"`
	Trashcans GameConfig `mapstructure:"trashcans"`
	Q20       GameConfig `mapstructure:"q20"`
}

// GameConfig tunes one game. TimeoutSeconds 0 disables the timer.
type GameConfig struct {
	Enabled        bool  `mapstructure:"enabled"`
	TimeoutSeconds int   `mapstructure:"timeout_seconds"`
	MaxScore       int64 `mapstructure:"max_score"`
	MaxAttempts    int   `mapstructure:"max_attempts"`
	WinnerBonus    int64 `mapstructure:"winner_bonus"`
}

// Settings converts the configuration into engine settings.
func (g GameConfig) Settings() game.Settings {
	return game.Settings{
		Timeout:     time.Duration(g.TimeoutSeconds) * time.Second,
		MaxScore:    g.MaxScore,
		MaxAttempts: g.MaxAttempts,
		WinnerBonus: g.WinnerBonus,
	}
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Location parses the leaderboard timezone.
func (s *StorageConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid storage.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TELEGRAM_TOKEN, DATABASE_HOST, GAMES_HANGMAN_ENABLED
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Bot.Transport {
	case TransportTelegram, TransportDiscord:
	default:
		return fmt.Errorf("invalid bot.transport %q: want %s or %s", c.Bot.Transport, TransportTelegram, TransportDiscord)
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("invalid storage.driver %q", c.Storage.Driver)
	}

	if _, err := c.Storage.Location(); err != nil {
		return err
	}

	if c.Games.SweepInterval <= 0 || c.Games.IdleAfter <= 0 {
		return fmt.Errorf("invalid games: sweep_interval and idle_after must be positive")
	}

	for name, g := range c.Games.ByCommand() {
		if g.TimeoutSeconds < 0 || g.MaxAttempts < 0 || g.WinnerBonus < 0 {
			return fmt.Errorf("invalid games.%s: negative values are not allowed", name)
		}
		if g.MaxScore < 1 {
			return fmt.Errorf("invalid games.%s.max_score: must be at least 1", name)
		}
	}
	return nil
}

// Token returns the credential for the selected transport.
func (c *Config) Token() string {
	if c.Bot.Transport == TransportDiscord {
		return c.Bot.DiscordToken
	}
	return c.Bot.TelegramToken
}

// CommandPrefix returns the prefix commands are typed with on the selected
// transport. Telegram always uses "/".
func (c *Config) CommandPrefix() string {
	if c.Bot.Transport != TransportDiscord {
		return "/"
	}
	if c.Bot.Prefix == "" {
		return "!"
	}
	return c.Bot.Prefix
}

// ByCommand returns every game configuration keyed by its command.
func (g *GamesConfig) ByCommand() map[string]GameConfig {
	return map[string]GameConfig{
		"hangman":   g.Hangman,
		"anagram":   g.Anagram,
		"voltorb":   g.Voltorb,
		"trashcans": g.Trashcans,
		"q20":       g.Q20,
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.transport", TransportTelegram)
	v.SetDefault("bot.telegram_token", "")
	v.SetDefault("bot.discord_token", "")
	v.SetDefault("bot.prefix", "!")

	v.SetDefault("log.level", "info")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Storage defaults
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "data/scores.db")
	v.SetDefault("storage.redis_url", "redis://localhost:6379/0")
	v.SetDefault("storage.redis_prefix", "")
	v.SetDefault("storage.timezone", "UTC")

	v.SetDefault("content.path", "")

	// Game defaults
	v.SetDefault("games.sweep_interval", "10m")
	v.SetDefault("games.idle_after", "1h")
	setGameDefaults(v, "hangman", GameConfig{Enabled: true, TimeoutSeconds: 90, MaxScore: 1000, MaxAttempts: 8})
	setGameDefaults(v, "anagram", GameConfig{Enabled: true, TimeoutSeconds: 90, MaxScore: 1000, MaxAttempts: 3})
	setGameDefaults(v, "voltorb", GameConfig{Enabled: true, TimeoutSeconds: 180, MaxScore: 1500})
	setGameDefaults(v, "trashcans", GameConfig{Enabled: true, TimeoutSeconds: 90, MaxScore: 1000, WinnerBonus: 250})
	setGameDefaults(v, "q20", GameConfig{Enabled: true, MaxScore: 1000, MaxAttempts: 20, WinnerBonus: 500})
}

func setGameDefaults(v *viper.Viper, name string, g GameConfig) {
	prefix := "games." + name + "."
	v.SetDefault(prefix+"enabled", g.Enabled)
	v.SetDefault(prefix+"timeout_seconds", g.TimeoutSeconds)
	v.SetDefault(prefix+"max_score", g.MaxScore)
	v.SetDefault(prefix+"max_attempts", g.MaxAttempts)
	v.SetDefault(prefix+"winner_bonus", g.WinnerBonus)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
// An empty whitelist allows every chat.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
