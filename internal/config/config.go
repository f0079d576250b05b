package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI     string
	MongoDbName  string
	MongoTimeout time.Duration // connect + ping bound at startup

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Server
	ApiPort string
	AppName string

	// Admin auth
	AdminUsername string
	AdminPassword string
	JwtSecret     string
	JwtTTL        time.Duration

	// Inquiry abuse guard
	InquiryRateWindow  time.Duration // window for both the speed limiter and the hard cap
	InquiryDelayAfter  int           // requests per window allowed before delays kick in
	InquiryDelay       time.Duration // fixed delay added to each request above InquiryDelayAfter
	InquiryRateLimit   int           // hard cap per window, rejected with 429 beyond this
	InquiryDedupWindow time.Duration // window for duplicate-submission rejection

	// General rate limiting defaults (admin/catalog surface)
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second

	// Notification email
	ResendAPIKey  string
	ResendBaseURL string
	SmtpHost      string
	SmtpPort      int
	SmtpUsername  string
	SmtpPassword  string
	SmtpSecure    bool // implicit TLS (465) vs STARTTLS/plain (587/25)
	MailFrom      string
	MailTo        string
	MailTimezone  string // reporting timezone rendered into the notification body
	MailTimeout   time.Duration

	// Geo lookup
	GeoBaseURL string
	GeoTimeout time.Duration

	// Object storage (S3-compatible OSS)
	OssAccessKeyID     string
	OssAccessKeySecret string
	OssRegion          string
	OssBucket          string
	OssEndpoint        string
	OssPublicBaseURL   string
	OssAllowedHosts    []string
	ImageMaxDimension  int
	ImageMaxSizeMB     int
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "juxin")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.ApiPort = getEnv("API_PORT", "3001")
	cfg.AppName = getEnv("APP_NAME", "Juxin")

	cfg.AdminUsername = getEnv("ADMIN_USERNAME", "")
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	cfg.ResendBaseURL = getEnv("RESEND_BASE_URL", "https://api.resend.com")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USER", "")
	cfg.SmtpPassword = getEnv("SMTP_PASS", "")
	cfg.SmtpSecure = getEnv("SMTP_SECURE", "false") == "true"
	cfg.MailFrom = getEnv("MAIL_FROM", "onboarding@resend.dev")
	cfg.MailTo = getEnv("MAIL_TO", "")
	cfg.MailTimezone = getEnv("MAIL_TIMEZONE", "Asia/Shanghai")

	cfg.GeoBaseURL = getEnv("GEO_BASE_URL", "https://ipapi.co")

	cfg.OssAccessKeyID = getEnv("OSS_ACCESS_KEY_ID", "")
	cfg.OssAccessKeySecret = getEnv("OSS_ACCESS_KEY_SECRET", "")
	cfg.OssRegion = getEnv("OSS_REGION", "cn-hangzhou")
	cfg.OssBucket = getEnv("OSS_BUCKET", "")
	cfg.OssEndpoint = getEnv("OSS_ENDPOINT", fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.OssRegion))
	cfg.OssPublicBaseURL = getEnv("OSS_PUBLIC_BASE_URL", "")
	if hosts := getEnv("OSS_ALLOWED_HOSTS", ""); hosts != "" {
		for _, h := range strings.Split(hosts, ",") {
			if trimmed := strings.TrimSpace(h); trimmed != "" {
				cfg.OssAllowedHosts = append(cfg.OssAllowedHosts, trimmed)
			}
		}
	}

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	mongoTimeoutSeconds, err := strconv.ParseInt(getEnv("MONGO_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_TIMEOUT_SECONDS: %w", err)
	}
	cfg.MongoTimeout = time.Duration(mongoTimeoutSeconds) * time.Second

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "604800"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	mailTimeoutSeconds, err := strconv.ParseInt(getEnv("MAIL_TIMEOUT_SECONDS", "20"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_TIMEOUT_SECONDS: %w", err)
	}
	cfg.MailTimeout = time.Duration(mailTimeoutSeconds) * time.Second

	geoTimeoutSeconds, err := strconv.ParseInt(getEnv("GEO_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GEO_TIMEOUT_SECONDS: %w", err)
	}
	cfg.GeoTimeout = time.Duration(geoTimeoutSeconds) * time.Second

	rateWindowSeconds, err := strconv.ParseInt(getEnv("INQUIRY_RATE_WINDOW_SECONDS", "600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INQUIRY_RATE_WINDOW_SECONDS: %w", err)
	}
	cfg.InquiryRateWindow = time.Duration(rateWindowSeconds) * time.Second

	cfg.InquiryDelayAfter, err = strconv.Atoi(getEnv("INQUIRY_DELAY_AFTER", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid INQUIRY_DELAY_AFTER: %w", err)
	}

	delayMs, err := strconv.ParseInt(getEnv("INQUIRY_DELAY_MS", "800"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INQUIRY_DELAY_MS: %w", err)
	}
	cfg.InquiryDelay = time.Duration(delayMs) * time.Millisecond

	cfg.InquiryRateLimit, err = strconv.Atoi(getEnv("INQUIRY_RATE_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid INQUIRY_RATE_LIMIT: %w", err)
	}

	dedupWindowSeconds, err := strconv.ParseInt(getEnv("INQUIRY_DEDUP_WINDOW_SECONDS", "300"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INQUIRY_DEDUP_WINDOW_SECONDS: %w", err)
	}
	cfg.InquiryDedupWindow = time.Duration(dedupWindowSeconds) * time.Second

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	// General rate limiting (admin/catalog surface)
	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
