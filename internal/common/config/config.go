package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Satu     SatuConfig     `mapstructure:"satu"`
	Amo      AmoConfig      `mapstructure:"amo"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the administrative HTTP API and metrics listeners.
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SyncConfig holds the recurring sync task settings.
type SyncConfig struct {
	IntervalMinutes     int    `mapstructure:"interval_minutes"`
	CycleTimeoutSeconds int    `mapstructure:"cycle_timeout_seconds"`
	CheckpointKey       string `mapstructure:"checkpoint_key"`
	EventLogPath        string `mapstructure:"event_log_path"`
}

// SatuConfig holds settings for the source order-management API.
type SatuConfig struct {
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AmoConfig holds settings for the destination CRM API.
type AmoConfig struct {
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if cfg.Sync.IntervalMinutes <= 0 {
		return fmt.Errorf("sync.interval_minutes must be positive")
	}
	if cfg.Sync.CycleTimeoutSeconds <= 0 {
		return fmt.Errorf("sync.cycle_timeout_seconds must be positive")
	}
	if cfg.Sync.CheckpointKey == "" {
		return fmt.Errorf("sync.checkpoint_key is required")
	}
	if cfg.Sync.EventLogPath == "" {
		return fmt.Errorf("sync.event_log_path is required")
	}
	return nil
}
