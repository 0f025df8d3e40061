package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	DB        DBConfig
	Redis     RedisConfig
	GRPC      GRPCConfig
	Store     StoreConfig
	Auth      AuthConfig
	Match     MatchConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	ENV string
}

type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

type DBConfig struct {
	Dialect    string // mysql | sqlite
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GRPCConfig struct {
	Host string
	Port string
}

// StoreConfig selects the document store backing interest records and chat threads.
type StoreConfig struct {
	Driver   string // sql | memory
	Notifier string // redis | local
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type MatchConfig struct {
	RetryAttempts  int
	RetryInterval  time.Duration
	SweepInterval  time.Duration
	ReofferRevoked bool
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Dialect = strings.ToLower(getEnvDefault("DB_DIALECT", "mysql"))
	cfg.DB.SQLitePath = getEnvDefault("SQLITE_PATH", "swapskills.db")
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "swapskills")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Document store
	cfg.Store.Driver = strings.ToLower(getEnvDefault("STORE_DRIVER", "sql"))
	cfg.Store.Notifier = strings.ToLower(getEnvDefault("STORE_NOTIFIER", "redis"))

	// Auth
	cfg.Auth.Secret = getEnvDefault("AUTH_SECRET", "dev-secret-change-me")
	cfg.Auth.Issuer = getEnvDefault("AUTH_ISSUER", "swapskills")
	cfg.Auth.TokenTTL = getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour)

	// Matching
	cfg.Match.RetryAttempts = getEnvInt("MATCH_RETRY_ATTEMPTS", 3)
	cfg.Match.RetryInterval = getEnvDuration("MATCH_RETRY_INTERVAL", 100*time.Millisecond)
	cfg.Match.SweepInterval = getEnvDuration("MATCH_SWEEP_INTERVAL", time.Minute)
	cfg.Match.ReofferRevoked = !isFalsy(os.Getenv("MATCH_REOFFER_REVOKED"))

	// Rate limiting
	cfg.RateLimit.PerSecond = getEnvFloat("RATE_LIMIT_PER_SECOND", 10)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", 20)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return true
	}
	return false
}
