package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	DBUser  string
	DBPass  string
	DBHost  string
	DBPort  string
	DBName  string
	SSLMode string

	RedisHost string
	RedisPort string

	NatsHost string
	NatsPort string

	ApiPort string

	SettlementURL     string
	SettlementTimeout time.Duration
}

// New loads and validates configuration from environment variables.
// The settlement gateway is optional: without PAYGUARD_SETTLEMENT_URL the
// service runs in authorization-only mode and approvals settle as no-ops.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:               getEnv("PAYGUARD_ENV", "development"),
		DBUser:            os.Getenv("PAYGUARD_POSTGRES_USER"),
		DBPass:            os.Getenv("PAYGUARD_POSTGRES_PASSWORD"),
		DBHost:            os.Getenv("PAYGUARD_POSTGRES_HOST"),
		DBPort:            getEnv("PAYGUARD_POSTGRES_PORT", "5432"),
		DBName:            os.Getenv("PAYGUARD_POSTGRES_DB"),
		SSLMode:           getEnv("PAYGUARD_POSTGRES_SSLMODE", "disable"),
		RedisHost:         os.Getenv("PAYGUARD_REDIS_HOST"),
		RedisPort:         getEnv("PAYGUARD_REDIS_PORT", "6379"),
		NatsHost:          os.Getenv("PAYGUARD_NATS_HOST"),
		NatsPort:          getEnv("PAYGUARD_NATS_PORT", "4222"),
		ApiPort:           getEnv("PAYGUARD_API_PORT", "8080"),
		SettlementURL:     os.Getenv("PAYGUARD_SETTLEMENT_URL"),
		SettlementTimeout: getEnvDuration("PAYGUARD_SETTLEMENT_TIMEOUT", 30*time.Second),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("missing required env for database: PAYGUARD_POSTGRES_USER/HOST/DB")
	}

	// Required: redis (submit idempotency keys)
	if cfg.RedisHost == "" {
		return nil, fmt.Errorf("missing required env: PAYGUARD_REDIS_HOST")
	}

	// Required: nats (lifecycle event bus and command channel)
	if cfg.NatsHost == "" {
		return nil, fmt.Errorf("missing required env: PAYGUARD_NATS_HOST")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

func (c *Config) ApiAddr() string {
	return ":" + c.ApiPort
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
