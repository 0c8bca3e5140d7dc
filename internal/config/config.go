// Package config loads process configuration from environment variables
// (optionally seeded from a .env file) with defaults. Provider credentials
// are NOT here: they rotate at runtime and live in the provider package's
// file-backed store.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port string

	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Delivery engine
	EngineInterval time.Duration // evaluation cycle period
	BatchLimit     int           // provider max recipients per batch call
	RefTZOffset    int           // operator timezone, hours east of UTC
	ProviderRPS    float64       // provider calls per second, 0 = unpaced

	// Credentials store
	CredentialsPath string

	// Events
	AMQPURL string // empty disables the AMQP publisher

	// Logging
	LogLevel  string
	LogPretty bool
}

func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		DBUser:          getEnv("DB_USER", "dripline"),
		DBPassword:      getEnv("DB_PASSWORD", "dripline"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBName:          getEnv("DB_NAME", "dripline"),
		EngineInterval:  getDuration("ENGINE_INTERVAL", time.Minute),
		BatchLimit:      getInt("PROVIDER_BATCH_LIMIT", 150),
		RefTZOffset:     getInt("REF_TZ_OFFSET_HOURS", 9),
		ProviderRPS:     getFloat("PROVIDER_RATE_PER_SEC", 10),
		CredentialsPath: getEnv("PROVIDER_CREDENTIALS_FILE", "credentials.yaml"),
		AMQPURL:         getEnv("AMQP_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getBool("LOG_PRETTY", false),
	}
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// ReferenceZone is the fixed timezone all calendar-day math and operator
// times use. The default (+9) matches the channel's operator timezone;
// storage is always UTC.
func (c Config) ReferenceZone() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.RefTZOffset), c.RefTZOffset*3600)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
