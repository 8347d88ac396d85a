package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bandit   BanditConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	AssignmentTTL time.Duration
}

type BanditConfig struct {
	MinTrafficWeight    float64
	MetricsWindowDays   int
	MinSampleSize       int
	ConfidenceThreshold float64
	RebalanceInterval   time.Duration
	RebalanceWorkers    int
	RebalanceLockKey    int64
	Seed                int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Price Lab"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "price_lab"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			AssignmentTTL: getEnvDuration("REDIS_ASSIGNMENT_TTL", 30*24*time.Hour),
		},
		Bandit: BanditConfig{
			MinTrafficWeight:    getEnvFloat("BANDIT_MIN_TRAFFIC_WEIGHT", 5),
			MetricsWindowDays:   getEnvInt("BANDIT_METRICS_WINDOW_DAYS", 7),
			MinSampleSize:       getEnvInt("BANDIT_MIN_SAMPLE_SIZE", 100),
			ConfidenceThreshold: getEnvFloat("BANDIT_CONFIDENCE_THRESHOLD", 0.95),
			RebalanceInterval:   getEnvDuration("BANDIT_REBALANCE_INTERVAL", 15*time.Minute),
			RebalanceWorkers:    getEnvInt("BANDIT_REBALANCE_WORKERS", 4),
			RebalanceLockKey:    int64(getEnvInt("BANDIT_REBALANCE_LOCK_KEY", 0x62616e64)),
			Seed:                int64(getEnvInt("BANDIT_SEED", 0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return errors.New("missing database password")
	}

	b := c.Bandit
	if b.MinTrafficWeight < 0 || b.MinTrafficWeight >= 100 {
		return fmt.Errorf("BANDIT_MIN_TRAFFIC_WEIGHT must be in [0, 100), got %v", b.MinTrafficWeight)
	}
	if b.MetricsWindowDays < 1 {
		return errors.New("BANDIT_METRICS_WINDOW_DAYS must be at least 1")
	}
	if b.MinSampleSize < 1 {
		return errors.New("BANDIT_MIN_SAMPLE_SIZE must be at least 1")
	}
	if b.ConfidenceThreshold <= 0 || b.ConfidenceThreshold >= 1 {
		return fmt.Errorf("BANDIT_CONFIDENCE_THRESHOLD must be in (0, 1), got %v", b.ConfidenceThreshold)
	}
	if b.RebalanceInterval <= 0 {
		return errors.New("BANDIT_REBALANCE_INTERVAL must be positive")
	}
	if b.RebalanceWorkers < 1 {
		return errors.New("BANDIT_REBALANCE_WORKERS must be at least 1")
	}

	return nil
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
