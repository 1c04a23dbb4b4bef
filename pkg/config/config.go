package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Push PushConfig
	SMS  SMSConfig
	Mail MailConfig

	// Night window during which translators who opted out of night-time
	// pushes get their notifications deferred to the next business time.
	NightStartHour    int
	NightEndHour      int
	BusinessStartHour int

	// SweepInterval controls how often the expiry sweeper scans for
	// pending bookings past their will-expire-at time.
	SweepInterval time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// PushConfig carries the OneSignal application credentials. Separate
// app/key pairs exist for prod and dev; Load picks by APP_ENV.
type PushConfig struct {
	BaseURL string
	AppID   string
	APIKey  string
	// Title shown on every push, e.g. the marketplace brand name.
	Title string
}

type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
}

type MailConfig struct {
	SMTPHost    string
	SMTPPort    string
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	appEnv := env("APP_ENV", "dev")

	pushAppID := os.Getenv("ONESIGNAL_DEV_APP_ID")
	pushAPIKey := os.Getenv("ONESIGNAL_DEV_API_KEY")
	if appEnv == "prod" {
		pushAppID = os.Getenv("ONESIGNAL_PROD_APP_ID")
		pushAPIKey = os.Getenv("ONESIGNAL_PROD_API_KEY")
	}

	return Config{
		AppEnv:         appEnv,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "bookingapp"),
			User:     env("DB_USER", "bookingapp"),
			Password: env("DB_PASSWORD", "bookingapp"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Push: PushConfig{
			BaseURL: env("ONESIGNAL_BASE_URL", "https://onesignal.com/api/v1"),
			AppID:   pushAppID,
			APIKey:  pushAPIKey,
			Title:   env("PUSH_TITLE", "DigitalTolk"),
		},
		SMS: SMSConfig{
			BaseURL:    os.Getenv("SMS_BASE_URL"),
			AccountSID: os.Getenv("SMS_ACCOUNT_SID"),
			AuthToken:  os.Getenv("SMS_AUTH_TOKEN"),
			FromNumber: os.Getenv("SMS_NUMBER"),
		},
		Mail: MailConfig{
			SMTPHost:    env("SMTP_HOST", "localhost"),
			SMTPPort:    env("SMTP_PORT", "25"),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromAddress: env("MAIL_FROM_ADDRESS", "noreply@digitaltolk.se"),
			FromName:    env("MAIL_FROM_NAME", "DigitalTolk"),
		},
		NightStartHour:    envInt("NIGHT_START_HOUR", 21),
		NightEndHour:      envInt("NIGHT_END_HOUR", 9),
		BusinessStartHour: envInt("BUSINESS_START_HOUR", 9),
		SweepInterval:     envDuration("SWEEP_INTERVAL", time.Minute),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
