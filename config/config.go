package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// External services
	LedgerURL     string
	PINServiceURL string

	// Proximity handoff token
	HandoffTokenTTL time.Duration

	// Abandoned purchase flows older than this are cancelled by the cleanup job
	FlowIdleTimeout time.Duration

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	AdminEmail   string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	handoffTTL, _ := strconv.Atoi(getEnv("HANDOFF_TOKEN_TTL_SECONDS", "120"))
	flowIdle, _ := strconv.Atoi(getEnv("FLOW_IDLE_TIMEOUT_MINUTES", "45"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/fuelflow?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),

		LedgerURL:     getEnv("LEDGER_URL", "http://localhost:9090"),
		PINServiceURL: getEnv("PIN_SERVICE_URL", "http://localhost:9091"),

		HandoffTokenTTL: time.Duration(handoffTTL) * time.Second,
		FlowIdleTimeout: time.Duration(flowIdle) * time.Minute,

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", "sandbox.smtp.mailtrap.io"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@fuelflow.example.com"),
		FromName:     getEnv("FROM_NAME", "FuelFlow"),
		AdminEmail:   getEnv("ADMIN_EMAIL", "fleet-admin@fuelflow.example.com"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
