package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	StoreDriver string // postgres, sqlite, redis, memory
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string

	// Session tokens
	JWTSecret     string
	SessionExpiry time.Duration

	// Admin
	AdminEmails string
	AdminToken  string

	// Debug login bypasses credentials; never enable outside demos.
	EnableDebugLogin bool

	// Delivery
	Mailer           string // log, smtp
	MailerDelay      time.Duration
	MailFrom         string
	SMTPAddr         string
	SMTPUser         string
	SMTPPassword     string
	Downloader       string // http, fake
	DownloadTimeout  time.Duration
	MaxPackageBytes  int64
	SimulatedLatency time.Duration

	// Subscriptions
	RevenueCatAuth       string
	PremiumEntitlementID string

	// Server
	Port         string
	CORSOrigins  string
	CatalogPath  string
	LogLevel     string
	LogRetention time.Duration
	LogCleanup   string // cron schedule
	SentryDSN    string
	Environment  string
}

func Load() *Config {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "indie_market"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		SQLitePath:  getEnv("SQLITE_PATH", "indie-market.db"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "indie-market:"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionExpiry: parseDuration(getEnv("SESSION_EXPIRY", "168h"), 168*time.Hour),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),

		EnableDebugLogin: parseBool(getEnv("ENABLE_DEBUG_LOGIN", "false")),

		Mailer:           getEnv("MAILER", "log"),
		MailerDelay:      parseDuration(getEnv("MAILER_DELAY", "1s"), time.Second),
		MailFrom:         getEnv("MAIL_FROM", "no-reply@indie-market.local"),
		SMTPAddr:         getEnv("SMTP_ADDR", ""),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		Downloader:       getEnv("DOWNLOADER", "http"),
		DownloadTimeout:  parseDuration(getEnv("DOWNLOAD_TIMEOUT", "0s"), 0),
		MaxPackageBytes:  parseInt64(getEnv("MAX_PACKAGE_BYTES", "67108864"), 64<<20),
		SimulatedLatency: parseDuration(getEnv("SIMULATED_LATENCY", "0s"), 0),

		RevenueCatAuth:       getEnv("REVENUECAT_WEBHOOK_AUTH", ""),
		PremiumEntitlementID: getEnv("PREMIUM_ENTITLEMENT_ID", "premium"),

		Port:         getEnv("PORT", "8080"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		CatalogPath:  getEnv("CATALOG_PATH", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 720*time.Hour),
		LogCleanup:   getEnv("LOG_CLEANUP_SCHEDULE", "0 3 * * *"),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		Environment:  getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, item := range strings.Split(c.AdminEmails, ",") {
		if strings.EqualFold(strings.TrimSpace(item), email) {
			return true
		}
	}
	return false
}
