package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/localplate/waitlist/internal/socialproof"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	RateLimit   RateLimitConfig
	Waitlist    WaitlistConfig
	SocialProof SocialProofConfig
	SMTP        SMTPConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	PublicURL string
}

type DatabaseConfig struct {
	URL         string
	TestURL     string
	MaxConns    int
	AutoMigrate bool
}

type RedisConfig struct {
	URL string
}

type CORSConfig struct {
	Origin string
}

type LogConfig struct {
	Level string
}

type RateLimitConfig struct {
	Requests       int
	Window         time.Duration
	SignupRequests int
}

type WaitlistConfig struct {
	Capacity       int
	Paused         bool
	InsertTimeout  time.Duration
	InsertAttempts int
	EntryVariant   string
	Source         string
	SuccessTTL     time.Duration
	SessionTTL     time.Duration
	StatusCacheTTL time.Duration
}

type SocialProofConfig struct {
	Rotation    socialproof.Config
	CatalogPath string
}

type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromName    string
	FromEmail   string
	FrontendURL string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	var errs []error
	duration := func(key, fallback string) time.Duration {
		d, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	float := func(key string, fallback float64) float64 {
		f, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return f
	}

	dayParts, err := socialproof.ParseDayParts(getEnv("SOCIAL_PROOF_DAYPARTS", socialproof.DefaultDayParts().String()))
	if err != nil {
		errs = append(errs, fmt.Errorf("SOCIAL_PROOF_DAYPARTS: %w", err))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			Env:       getEnv("ENV", "development"),
			PublicURL: getEnv("PUBLIC_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			TestURL:     getEnv("DATABASE_TEST_URL", ""),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 25),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		CORS: CORSConfig{
			Origin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			Requests:       getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:         duration("RATE_LIMIT_WINDOW", "1m"),
			SignupRequests: getEnvInt("SIGNUP_RATE_LIMIT_REQUESTS", 5),
		},
		Waitlist: WaitlistConfig{
			Capacity:       getEnvInt("WAITLIST_CAPACITY", 500),
			Paused:         getEnvBool("WAITLIST_PAUSED", false),
			InsertTimeout:  duration("WAITLIST_INSERT_TIMEOUT", "30s"),
			InsertAttempts: getEnvInt("WAITLIST_INSERT_ATTEMPTS", 3),
			EntryVariant:   getEnv("WAITLIST_ENTRY_VARIANT", "email_only_v1"),
			Source:         getEnv("WAITLIST_SOURCE", "waitlist_email_capture"),
			SuccessTTL:     duration("WAITLIST_SUCCESS_TTL", "60s"),
			SessionTTL:     duration("WAITLIST_SESSION_TTL", "24h"),
			StatusCacheTTL: duration("WAITLIST_STATUS_CACHE_TTL", "30s"),
		},
		SocialProof: SocialProofConfig{
			Rotation: socialproof.Config{
				RotationInterval:         duration("SOCIAL_PROOF_INTERVAL", "8s"),
				MaxImpressionsPerMessage: getEnvInt("SOCIAL_PROOF_MAX_IMPRESSIONS", 2),
				StorageKey:               getEnv("SOCIAL_PROOF_STORAGE_KEY", "lp_social_proof_v1"),
				ExclusivitySample:        getEnvInt("SOCIAL_PROOF_EXCLUSIVITY_SAMPLE", 2),
				GeographicChance:         float("SOCIAL_PROOF_GEO_CHANCE", 0.5),
				UrgencyChance:            float("SOCIAL_PROOF_URGENCY_CHANCE", 0.3),
				DayParts:                 dayParts,
			},
			CatalogPath: getEnv("SOCIAL_PROOF_CATALOG", ""),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:        getEnvInt("SMTP_PORT", 587),
			User:        getEnv("SMTP_USER", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromName:    getEnv("SMTP_FROM_NAME", "LocalPlate"),
			FromEmail:   getEnv("SMTP_FROM_EMAIL", "hello@localplate.com"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	// Validate critical configuration
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Waitlist.Capacity <= 0 {
		return nil, fmt.Errorf("WAITLIST_CAPACITY must be positive")
	}
	if cfg.Waitlist.InsertAttempts < 1 {
		return nil, fmt.Errorf("WAITLIST_INSERT_ATTEMPTS must be at least 1")
	}
	if err := cfg.SocialProof.Rotation.Validate(); err != nil {
		return nil, fmt.Errorf("social proof: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		var result int
		_, err := fmt.Sscanf(value, "%d", &result)
		if err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
