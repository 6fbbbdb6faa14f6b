package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `validate:"required,numeric"`

	// Remote shop API
	APIURL        string `validate:"required,url"`
	APIPrefix     string `validate:"omitempty,startswith=/"`
	APIHealthPath string `validate:"omitempty,startswith=/"`

	SiteName string  `validate:"required"`
	TaxRate  float64 `validate:"gte=0,lt=1"`

	// Session
	JWTSecret     string
	SessionCookie string        `validate:"required"`
	SessionTTL    time.Duration `validate:"gt=0"`
	SessionWait   time.Duration `validate:"gt=0"`
	CookieSecure  bool

	// Redis is optional; memory stores are used when RedisAddr is empty.
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	RateLimit  int           `validate:"gt=0"`
	RateWindow time.Duration `validate:"gt=0"`

	CORSOrigins []string
	// TrustProxy honours X-Forwarded-For and X-Real-IP. Enable it only
	// behind a proxy that overwrites those headers.
	TrustProxy bool

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64 `validate:"gte=0,lte=1"`

	LogLevel  string
	LogFormat string `validate:"oneof=json console"`
}

func Load() *Config {
	// .env is optional
	_ = godotenv.Load(".env")

	return &Config{
		Port:            getEnv("HTTP_PORT", "8080"),
		APIURL:          strings.TrimRight(getEnv("API_URL", "http://localhost:5050"), "/"),
		APIPrefix:       getEnv("API_PREFIX", "/api"),
		APIHealthPath:   getEnv("API_HEALTH_PATH", "/api/health"),
		SiteName:        getEnv("SITE_NAME", "Industrie Import"),
		TaxRate:         getFloat("TAX_RATE", 0.08),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionCookie:   getEnv("SESSION_COOKIE", "token"),
		SessionTTL:      getDuration("SESSION_TTL", 10*time.Minute),
		SessionWait:     getDuration("SESSION_WAIT", 250*time.Millisecond),
		CookieSecure:    getBool("COOKIE_SECURE", false),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		RateLimit:       getInt("RATE_LIMIT", 20),
		RateWindow:      getDuration("RATE_WINDOW", time.Minute),
		CORSOrigins:     getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		TrustProxy:      getBool("TRUST_PROXY", false),
		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_ENDPOINT", ""),
		OTelSampleRatio: getFloat("OTEL_SAMPLE_RATIO", 0),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIBase is the URL every downstream path is appended to.
func (c *Config) APIBase() string {
	return c.APIURL + c.APIPrefix
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
