package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	OTLPEndpoint   string
	TracingEnabled bool

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

	RedisAddr string

	RateLimitRPS   int
	RateLimitBurst int

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string

	NotificationEndpoint string
	NotificationToken    string

	AuthSecret  string
	SystemToken string

	GracePeriodDays   int
	ReminderDays      []int
	RenewWindowHours  int
	SchedulerInterval int
	SchedulerJobs     []string
	SchedulerBatch    int

	TestPricing  bool
	TestPrice    int64
	SeedDemoData bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "skillpassport-billing"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		OTLPEndpoint:   getenv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getenvBool("TRACING_ENABLED", false),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "skillpassport"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr: getenv("REDIS_ADDR", ""),

		RateLimitRPS:   getenvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getenvInt("RATE_LIMIT_BURST", 40),

		RazorpayKeyID:     strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
		RazorpayKeySecret: strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
		RazorpayBaseURL:   getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),

		NotificationEndpoint: strings.TrimSpace(getenv("NOTIFICATION_ENDPOINT", "")),
		NotificationToken:    strings.TrimSpace(getenv("NOTIFICATION_TOKEN", "")),

		AuthSecret:  strings.TrimSpace(getenv("AUTH_SECRET", "")),
		SystemToken: strings.TrimSpace(getenv("SYSTEM_TOKEN", "")),

		GracePeriodDays:   getenvInt("GRACE_PERIOD_DAYS", 3),
		ReminderDays:      getenvInts("REMINDER_DAYS", []int{7, 3, 1}),
		RenewWindowHours:  getenvInt("AUTO_RENEW_WINDOW_HOURS", 24),
		SchedulerInterval: getenvInt("SCHEDULER_INTERVAL_SECONDS", 3600),
		SchedulerJobs:     parseList(os.Getenv("SCHEDULER_JOBS")),
		SchedulerBatch:    getenvInt("SCHEDULER_BATCH_SIZE", 100),

		TestPricing:  getenvBool("TEST_PRICING", environment != "production"),
		TestPrice:    getenvInt64("TEST_PRICE", 1),
		SeedDemoData: getenvBool("SEED_DEMO_DATA", false),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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

func getenvInts(key string, def []int) []int {
	raw := parseList(os.Getenv(key))
	if len(raw) == 0 {
		return def
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		parsed, err := strconv.Atoi(item)
		if err != nil {
			return def
		}
		out = append(out, parsed)
	}
	return out
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Module provides application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)
