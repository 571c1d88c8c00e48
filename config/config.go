package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Discord       DiscordConfig       `yaml:"discord"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Grades        GradesConfig        `yaml:"grades"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DiscordConfig holds Discord configuration.
type DiscordConfig struct {
	Token         string  `yaml:"token"`
	GuildID       string  `yaml:"guild_id"`
	CommandPrefix string  `yaml:"command_prefix"`
	DMPerSecond   float64 `yaml:"dm_per_second"`
	DMBurst       int     `yaml:"dm_burst"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps events in process.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// GradesConfig holds the grade ladder constants.
type GradesConfig struct {
	Floor            int    `yaml:"floor"`
	Ceiling          int    `yaml:"ceiling"`
	TerminalRoleName string `yaml:"terminal_role_name"`
}

// ScheduleConfig holds scheduled update settings.
type ScheduleConfig struct {
	Store       string `yaml:"store"` // file|postgres
	File        string `yaml:"file"`
	Timezone    string `yaml:"timezone"`
	AnnualMonth int    `yaml:"annual_month"`
	AnnualDay   int    `yaml:"annual_day"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	LogLevel       string `yaml:"log_level"`
	Environment    string `yaml:"environment"`
}

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Discord.Token = os.Getenv("DISCORD_TOKEN")
	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable not set")
	}

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("COMMAND_PREFIX"); v != "" {
		cfg.Discord.CommandPrefix = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("SCHEDULE_STORE"); v != "" {
		cfg.Schedule.Store = v
	}
	if v := os.Getenv("SCHEDULE_FILE"); v != "" {
		cfg.Schedule.File = v
	}
	if v := os.Getenv("SCHEDULE_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if v := os.Getenv("DM_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Discord.DMPerSecond = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Discord.CommandPrefix == "" {
		cfg.Discord.CommandPrefix = "!"
	}
	if cfg.Discord.DMPerSecond <= 0 {
		cfg.Discord.DMPerSecond = 5
	}
	if cfg.Discord.DMBurst <= 0 {
		cfg.Discord.DMBurst = 5
	}
	if cfg.Grades.Floor == 0 {
		cfg.Grades.Floor = 9
	}
	if cfg.Grades.Ceiling == 0 {
		cfg.Grades.Ceiling = 12
	}
	if cfg.Grades.TerminalRoleName == "" {
		cfg.Grades.TerminalRoleName = "[ALUMNI]"
	}
	if cfg.Schedule.Store == "" {
		cfg.Schedule.Store = StoreFile
	}
	if cfg.Schedule.File == "" {
		cfg.Schedule.File = "schedule.json"
	}
	if cfg.Schedule.AnnualMonth == 0 {
		cfg.Schedule.AnnualMonth = 8
	}
	if cfg.Schedule.AnnualDay == 0 {
		cfg.Schedule.AnnualDay = 1
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	cfg.Schedule.Store = strings.ToLower(cfg.Schedule.Store)
}

// Validate reports settings the bot cannot start with.
func (c *Config) Validate() error {
	if c.Grades.Floor > c.Grades.Ceiling {
		return fmt.Errorf("grades.floor %d is above grades.ceiling %d", c.Grades.Floor, c.Grades.Ceiling)
	}
	switch c.Schedule.Store {
	case StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown schedule.store %q", c.Schedule.Store)
	}
	if c.Schedule.AnnualMonth < 1 || c.Schedule.AnnualMonth > 12 || c.Schedule.AnnualDay < 1 || c.Schedule.AnnualDay > 31 {
		return fmt.Errorf("invalid annual update date %d/%d", c.Schedule.AnnualMonth, c.Schedule.AnnualDay)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone scheduled dates are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Observability.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
