package config

import (
	"log"
	"os"
	"strconv"

	"kensetsu-backend/internal/billing"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Fallback billing terms used when a project's client has no master
	// record. Injected into the projector so tests can override them.
	DefaultTerms billing.Terms
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=kensetsu port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		DefaultTerms: billing.Terms{
			ClosingDay:  getEnvInt("BILLING_DEFAULT_CLOSING_DAY", 25),
			PaymentDay:  getEnvInt("BILLING_DEFAULT_PAYMENT_DAY", 25),
			MonthOffset: getEnvInt("BILLING_DEFAULT_MONTH_OFFSET", 1),
		},
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.DefaultTerms.ClosingDay < 1 || cfg.DefaultTerms.ClosingDay > 31 {
		log.Fatal("[FATAL] BILLING_DEFAULT_CLOSING_DAY must be 1-31")
	}
	if cfg.DefaultTerms.PaymentDay < 1 || cfg.DefaultTerms.PaymentDay > 31 {
		log.Fatal("[FATAL] BILLING_DEFAULT_PAYMENT_DAY must be 1-31")
	}
	if cfg.DefaultTerms.MonthOffset < 0 {
		log.Fatal("[FATAL] BILLING_DEFAULT_MONTH_OFFSET must be >= 0")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("[FATAL] %s must be an integer, got %q", key, v)
	}
	return n
}
