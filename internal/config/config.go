// Package config loads service and planner settings from a config file,
// the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Webhooks WebhookConfig  `mapstructure:"webhooks"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	// Token bucket on POST /v1/solve.
	SolveRPS   float64 `mapstructure:"solve_rps" validate:"gt=0"`
	SolveBurst int     `mapstructure:"solve_burst" validate:"gte=1"`
}

// DatabaseConfig selects the plan store. An empty URL keeps plans in memory.
type DatabaseConfig struct {
	URL           string `mapstructure:"url"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// RedisConfig enables cross-instance event fan-out when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type PlannerConfig struct {
	CruiseAltitude    float64 `mapstructure:"cruise_altitude" validate:"gte=0"`
	SafetyMargin      float64 `mapstructure:"safety_margin" validate:"gt=0"`
	MaxDetours        int     `mapstructure:"max_detours" validate:"gte=1"`
	ClusterK          int     `mapstructure:"cluster_k" validate:"gte=1"`
	ClusterThreshold  int     `mapstructure:"cluster_threshold" validate:"gte=1"`
	ClusterIterations int     `mapstructure:"cluster_iterations" validate:"gte=1"`
	Seed              int64   `mapstructure:"seed"`
	TwoOptPasses      int     `mapstructure:"two_opt_passes" validate:"gte=0"`
	AutoClusterMin    int     `mapstructure:"auto_cluster_min" validate:"gte=1"`
	PresetsFile       string  `mapstructure:"presets_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Log format: json, text
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

type WebhookConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=1"`
	Batch        int           `mapstructure:"batch" validate:"gte=1"`
}

// AuthConfig selects how API callers are identified. In header mode the
// X-Tenant-Id and X-Role headers are trusted as sent.
type AuthConfig struct {
	Mode        string `mapstructure:"mode" validate:"required,oneof=header dev hmac"`
	HMACSecret  string `mapstructure:"hmac_secret" validate:"required_if=Mode hmac"`
	TenantClaim string `mapstructure:"tenant_claim" validate:"required"`
	RoleClaim   string `mapstructure:"role_claim" validate:"required"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dronefeed")
	}

	v.SetEnvPrefix("DRONEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The bare variables used by the container images still work.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" && !v.IsSet("database.url") {
		v.Set("database.url", dbURL)
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" && !v.IsSet("redis.url") {
		v.Set("redis.url", redisURL)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with only defaults applied.
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}

// bindEnv registers every key so AutomaticEnv picks it up during Unmarshal
// even when no config file mentions it.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"server.addr", "server.read_timeout", "server.write_timeout", "server.solve_rps", "server.solve_burst",
		"database.url", "database.migrations_dir",
		"redis.url",
		"planner.cruise_altitude", "planner.safety_margin", "planner.max_detours", "planner.cluster_k",
		"planner.cluster_threshold", "planner.cluster_iterations", "planner.seed", "planner.two_opt_passes",
		"planner.auto_cluster_min", "planner.presets_file",
		"logging.level", "logging.format",
		"webhooks.poll_interval", "webhooks.max_attempts", "webhooks.batch",
		"auth.mode", "auth.hmac_secret", "auth.tenant_claim", "auth.role_claim",
	} {
		_ = v.BindEnv(key)
	}
}
