package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	HTTPAddr    string
	Environment string

	SessionSecret string
	ResetSecret   string
	ResetTokenTTL time.Duration
	ResetURLBase  string

	// CountCancelled keeps cancelled bookings counted against slot
	// capacity, which is how the system has historically behaved.
	CountCancelled bool
	BookingRetries int

	SMTPAddr string
	SMTPFrom string

	AdminUsername string
	AdminPassword string

	MigrationsDir string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		Environment:    getEnv("ENV", "development"),
		SessionSecret:  getEnv("SESSION_SECRET", "dev-session-secret"),
		ResetSecret:    getEnv("RESET_SECRET", "dev-reset-secret"),
		ResetTokenTTL:  durationEnv("RESET_TOKEN_TTL", time.Hour),
		ResetURLBase:   getEnv("RESET_URL_BASE", "http://localhost:8080/reset_password"),
		CountCancelled: boolEnv("CAPACITY_COUNT_CANCELLED", true),
		BookingRetries: intEnv("BOOKING_RETRIES", 3),
		SMTPAddr:       os.Getenv("SMTP_ADDR"),
		SMTPFrom:       getEnv("SMTP_FROM", "no-reply@example.com"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Printf("invalid bool for %s, using fallback %v", key, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("invalid int for %s, using fallback %d", key, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}
