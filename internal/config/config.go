package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// Shared secret for the bank webhook body signature.
	WebhookSecret string

	SlackSigningSecret string
	SlackBotToken      string
	SlackChannel       string

	OdooURL      string
	OdooDatabase string
	OdooUserID   int64
	OdooAPIKey   string
	// Order names in Odoo carry this prefix ("S00042" style).
	OdooOrderPrefix string

	// Maximum absolute difference between order total and paid amount
	// for the two to still be considered the same, in currency units.
	AmountTolerance string

	// Optional endpoint of the free-text extraction fallback service.
	FallbackExtractorURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "bankrecon"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "bankrecon"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		WebhookSecret: strings.TrimSpace(getenv("WEBHOOK_SECRET", "")),

		SlackSigningSecret: strings.TrimSpace(getenv("SLACK_SIGNING_SECRET", "")),
		SlackBotToken:      strings.TrimSpace(getenv("SLACK_BOT_TOKEN", "")),
		SlackChannel:       strings.TrimSpace(getenv("SLACK_CHANNEL", "")),

		OdooURL:         strings.TrimRight(strings.TrimSpace(getenv("ODOO_URL", "")), "/"),
		OdooDatabase:    strings.TrimSpace(getenv("ODOO_DATABASE", "")),
		OdooUserID:      getenvInt64("ODOO_USER_ID", 0),
		OdooAPIKey:      strings.TrimSpace(getenv("ODOO_API_KEY", "")),
		OdooOrderPrefix: getenv("ODOO_ORDER_PREFIX", "S"),

		AmountTolerance: getenv("AMOUNT_TOLERANCE", "1.0"),

		FallbackExtractorURL: strings.TrimSpace(getenv("FALLBACK_EXTRACTOR_URL", "")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
