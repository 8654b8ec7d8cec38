package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// NotifyConfig holds notification dispatch configuration
type NotifyConfig struct {
	// ClosingSoonWindow is how far ahead the deadline sweep looks when
	// warning bidders about tenders that are about to close.
	ClosingSoonWindow time.Duration
	Async             bool
}

// EvaluationConfig holds bid evaluation configuration
type EvaluationConfig struct {
	// ShortlistThreshold is the minimum combined score (0-100) a bid
	// needs before it can be shortlisted.
	ShortlistThreshold float64
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Notify      NotifyConfig
	Evaluation  EvaluationConfig
}

// Load reads configuration from the environment, with an optional
// .env file providing defaults for local development.
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// The .env file is optional outside local development
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	return &Config{
		ServiceName: serviceName,
		DB:          loadDB(serviceName),
		Server: ServerConfig{
			Port: envString("SERVER_PORT", "8080"),
			Env:  envString("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      envString("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: envInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: envString("METRICS_PREFIX", serviceName),
		},
		Notify: NotifyConfig{
			ClosingSoonWindow: envDuration("NOTIFY_CLOSING_SOON_WINDOW", 48*time.Hour),
			Async:             envBool("NOTIFY_ASYNC", false),
		},
		Evaluation: EvaluationConfig{
			ShortlistThreshold: envFloat("EVALUATION_SHORTLIST_THRESHOLD", 70.0),
		},
	}, nil
}

func loadDB(serviceName string) DBConfig {
	return DBConfig{
		Host:            envString("DB_HOST", "localhost"),
		Port:            envString("DB_PORT", "5432"),
		User:            envString("DB_USER", "postgres"),
		Password:        envString("DB_PASSWORD", "password"),
		DBName:          envString("DB_NAME", serviceName),
		SSLMode:         envString("DB_SSL_MODE", "disable"),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
		LogLevel:        envGormLogLevel("DB_LOG_LEVEL", logger.Info),
	}
}

func envString(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, err := strconv.Atoi(envString(key, "")); err == nil {
		return value
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(envString(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(envString(key, "")); err == nil {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(envString(key, "")); err == nil {
		return value
	}
	return fallback
}

func envGormLogLevel(key string, fallback logger.LogLevel) logger.LogLevel {
	switch envString(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return fallback
	}
}
