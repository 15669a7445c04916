package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Clients  []ClientConfig `mapstructure:"clients"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
	AdminKey      string `mapstructure:"admin_key"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type AuditConfig struct {
	Dir        string `mapstructure:"dir"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EngineConfig holds the tunable resource bounds of the trust engine.
// Scoring thresholds and factor weights are fixed, not configuration.
type EngineConfig struct {
	ProfileCeiling       int `mapstructure:"profile_ceiling"`        // inline prune trigger
	ProfileRetentionDays int `mapstructure:"profile_retention_days"` // lastSeen eviction cutoff
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"` // sanction sweep cadence
	HistoryMax           int `mapstructure:"history_max"`            // per-game records per wallet
	BaselineMax          int `mapstructure:"baseline_max"`           // scores per game baseline
	DetectionLogMax      int `mapstructure:"detection_log_max"`      // detection ring size
}

type ClientConfig struct {
	ID     string  `mapstructure:"id"`
	Name   string  `mapstructure:"name"`
	APIKey string  `mapstructure:"api_key"`
	QPS    float64 `mapstructure:"qps"`
	Burst  int     `mapstructure:"burst"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. TRUSTGATE_REDIS_ADDR
	viper.SetEnvPrefix("trustgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("audit.dir", "./logs")
	viper.SetDefault("audit.buffer_size", 1000)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("database.audit_retention_days", 30)
	viper.SetDefault("engine.profile_ceiling", 50000)
	viper.SetDefault("engine.profile_retention_days", 90)
	viper.SetDefault("engine.sweep_interval_minutes", 60)
	viper.SetDefault("engine.history_max", 100)
	viper.SetDefault("engine.baseline_max", 10000)
	viper.SetDefault("engine.detection_log_max", 10000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
