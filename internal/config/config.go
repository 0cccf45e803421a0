package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                   string
	DBUrl                  string
	JWTSecret              string
	AppEnv                 string
	DeveloperPercentage    float64
	AdminUserID            int64
	PaymentWebhookSecret   string
	PaymentCheckoutBaseURL string
	SlotCleanupSchedule    string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	webhookSecret, exists := os.LookupEnv("PAYMENT_WEBHOOK_SECRET")
	if !exists || webhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	adminUserID, err := getEnvInt64("ADMIN_USER_ID", 0)
	if err != nil {
		return nil, err
	}
	if adminUserID <= 0 {
		return nil, fmt.Errorf("ADMIN_USER_ID is required")
	}
	percentage, err := getEnvFloat("DEVELOPER_PERCENTAGE", 0.8)
	if err != nil {
		return nil, err
	}
	if percentage <= 0 || percentage > 1 {
		return nil, fmt.Errorf("DEVELOPER_PERCENTAGE must be in (0, 1]")
	}

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		DBUrl:                  getEnv("DB_URL", ""),
		JWTSecret:              jwtSecret,
		AppEnv:                 normalizeEnv(getEnv("APP_ENV", "production")),
		DeveloperPercentage:    percentage,
		AdminUserID:            adminUserID,
		PaymentWebhookSecret:   webhookSecret,
		PaymentCheckoutBaseURL: getEnv("PAYMENT_CHECKOUT_BASE_URL", "https://pay.devconnect.local"),
		SlotCleanupSchedule:    getEnv("SLOT_CLEANUP_SCHEDULE", "0 3 * * *"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
