package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
	Telemetry   TelemetryConfig
	Leaderboard LeaderboardConfig
	Like        LikeConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type DatabaseConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

type LeaderboardConfig struct {
	Key  string
	Size int
}

type LikeConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// DSNString returns the explicit DSN when one is configured, otherwise a
// key=value DSN assembled from the individual settings.
func (c DatabaseConfig) DSNString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Load reads an optional .env file, an optional config.yml and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("config: app port is required")
	}
	if c.Like.MaxAttempts < 1 {
		return fmt.Errorf("config: like.max_attempts must be at least 1, got %d", c.Like.MaxAttempts)
	}
	if c.Leaderboard.Size < 1 {
		return fmt.Errorf("config: leaderboard.size must be at least 1, got %d", c.Leaderboard.Size)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "articles-api")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "articles")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "like.queue")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "articles-api")
	v.SetDefault("telemetry.service_version", "dev")

	v.SetDefault("leaderboard.key", "rank:article:likes")
	v.SetDefault("leaderboard.size", 10)

	v.SetDefault("like.max_attempts", 3)
}

// bindLegacyEnv keeps the short variable names used by existing deployments
// (PORT, DB_HOST, DATABASE_URL, ...) working next to the derived ones.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.port":          {"PORT", "APP_PORT"},
		"database.dsn":      {"DATABASE_URL", "DATABASE_DSN"},
		"database.host":     {"DB_HOST", "DATABASE_HOST"},
		"database.port":     {"DB_PORT", "DATABASE_PORT"},
		"database.user":     {"DB_USER", "DATABASE_USER"},
		"database.password": {"DB_PASSWORD", "DATABASE_PASSWORD"},
		"database.name":     {"DB_NAME", "DATABASE_NAME"},
		"database.ssl_mode": {"DB_SSLMODE", "DATABASE_SSL_MODE"},
		"rabbitmq.url":      {"RABBITMQ_URL"},
		"rabbitmq.queue":    {"RABBITMQ_QUEUE"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
