package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	KurrentDB KurrentDBConfig
	Auth      AuthConfig
	HIS       HISConfig
	Fraud     FraudConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// RateLimitRPS caps requests per second across the API (0 disables)
	RateLimitRPS   int
	RateLimitBurst int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// KurrentDBConfig holds configuration for KurrentDB (EventStoreDB).
type KurrentDBConfig struct {
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

type AuthConfig struct {
	JWTSecret string
}

// HISConfig configures the legacy hospital information system adapter
// that feeds claims into the platform.
type HISConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// PollIntervalSeconds controls how often new claims are fetched
	PollIntervalSeconds int
	// SourceHospital identifies claims from this adapter instance
	SourceHospital string
}

// FraudConfig carries tunables for the fraud analysis engine. Anatomical
// limits themselves are code-level defaults overridable per deployment via
// FRAUD_LIMIT_<CATEGORY> variables, read in LimitOverrides.
type FraudConfig struct {
	// MinGapDays is the minimum plausible gap between adjacent procedures
	MinGapDays int
	// MaxHospitals is the highest distinct-hospital count not flagged
	MaxHospitals int
	// MaxInsurers is the highest distinct-insurer count not flagged
	MaxInsurers int
	// MaxNameVariants is the highest distinct-name count not flagged
	MaxNameVariants int
	// MinScoreToStore is the score above which results are persisted
	MinScoreToStore float64
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8080),
			Env:            getEnv("ENV", "development"),
			RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 100),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 50),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "hie"),
			Password: getEnv("DB_PASSWORD", "hie"),
			Database: getEnv("DB_NAME", "hie"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		KurrentDB: KurrentDBConfig{
			Host:     getEnv("KURRENTDB_HOST", "localhost"),
			Port:     getEnvInt("KURRENTDB_PORT", 2113),
			Insecure: getEnvBool("KURRENTDB_INSECURE", true),
			Username: getEnv("KURRENTDB_USERNAME", ""),
			Password: getEnv("KURRENTDB_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		HIS: HISConfig{
			Enabled:             getEnvBool("HIS_ENABLED", false),
			Host:                getEnv("HIS_DB_HOST", "localhost"),
			Port:                getEnvInt("HIS_DB_PORT", 1433),
			User:                getEnv("HIS_DB_USER", "sa"),
			Password:            getEnv("HIS_DB_PASSWORD", ""),
			Database:            getEnv("HIS_DB_NAME", "AfyaCare"),
			SSLMode:             getEnv("HIS_DB_SSLMODE", "disable"),
			PollIntervalSeconds: getEnvInt("HIS_POLL_INTERVAL_SECONDS", 60),
			SourceHospital:      getEnv("HIS_SOURCE_HOSPITAL", ""),
		},
		Fraud: FraudConfig{
			MinGapDays:      getEnvInt("FRAUD_MIN_GAP_DAYS", 7),
			MaxHospitals:    getEnvInt("FRAUD_MAX_HOSPITALS", 2),
			MaxInsurers:     getEnvInt("FRAUD_MAX_INSURERS", 1),
			MaxNameVariants: getEnvInt("FRAUD_MAX_NAME_VARIANTS", 1),
			MinScoreToStore: getEnvFloat("FRAUD_MIN_SCORE_TO_STORE", 0.3),
		},
	}, nil
}

// LimitOverrides reads per-category anatomical limit overrides from the
// environment, e.g. FRAUD_LIMIT_HEART_SURGERY=1. Categories not overridden
// keep their built-in defaults.
func LimitOverrides() map[string]int {
	overrides := make(map[string]int)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "FRAUD_LIMIT_") {
			continue
		}
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			continue
		}
		category := strings.ToLower(strings.TrimPrefix(name, "FRAUD_LIMIT_"))
		overrides[category] = limit
	}
	return overrides
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
