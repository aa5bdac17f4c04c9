package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// StockCheckRelaxed reads, checks and writes inside one transaction
	// without row locks. Two concurrent adds may both pass the check.
	StockCheckRelaxed = "relaxed"
	// StockCheckLocked additionally reads product and cart rows with
	// SELECT ... FOR UPDATE where the database supports it.
	StockCheckLocked = "locked"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers     []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopicPrefix string   `mapstructure:"KAFKA_TOPIC_PREFIX"`

	StockCheck      string        `mapstructure:"CART_STOCK_CHECK"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"APP_ENV":            "development",
	"PORT":               "8080",
	"LOG_LEVEL":          "info",
	"DB_DRIVER":          DriverPostgres,
	"DATABASE_URL":       "",
	"DB_HOST":            "localhost",
	"DB_PORT":            "5432",
	"DB_USER":            "postgres",
	"DB_PASSWORD":        "postgres",
	"DB_NAME":            "storefront",
	"SQLITE_PATH":        "storefront.db",
	"REDIS_ADDR":         "",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"KAFKA_BROKERS":      "",
	"KAFKA_TOPIC_PREFIX": "storefront.",
	"CART_STOCK_CHECK":   StockCheckRelaxed,
	"CORS_ORIGINS":       "*",
	"SHUTDOWN_TIMEOUT":   "10s",
}

// Load reads .env (if present) and the process environment. Environment
// variables win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.CORSOrigins = compact(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StockCheck {
	case StockCheckRelaxed, StockCheckLocked:
	default:
		return fmt.Errorf("unsupported CART_STOCK_CHECK %q", c.StockCheck)
	}
	return nil
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) LockRows() bool {
	return c.StockCheck == StockCheckLocked
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
