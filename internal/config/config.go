package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// development fallbacks for the session secrets, refused when APP_ENV=prod
const (
	devSessionSecret   = "dev-session-secret"
	devSessionHashKey  = "dev-hash-key-change-me-0123456789abcdef"
	devSessionBlockKey = "dev-block-key-32-bytes-long-0000"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	Storage     string // "postgres" | "memory"
	AutoMigrate bool
	Timezone    string

	// sessions
	SessionTimeout          time.Duration
	SessionSecret           string
	SessionCookieName       string
	SessionHashKey          string
	SessionBlockKey         string
	SessionSweepProbability float64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL      string
	OTLPEndpoint string

	AllowedOrigins  []string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	MaxBodyBytes    int64
	CatalogCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() Config {
	// a missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		Storage:     getEnv("APP_STORAGE", "postgres"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		Timezone:    getEnv("TIMEZONE", "UTC"),

		SessionTimeout:          getEnvDuration("SESSION_TIMEOUT", 30*time.Minute),
		SessionSecret:           getEnv("SESSION_SECRET", devSessionSecret),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "rental_session"),
		SessionHashKey:          getEnv("SESSION_HASH_KEY", devSessionHashKey),
		SessionBlockKey:         getEnv("SESSION_BLOCK_KEY", devSessionBlockKey),
		SessionSweepProbability: getEnvFloat("SESSION_SWEEP_PROBABILITY", 0.01),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		NATSURL:      getEnv("NATS_URL", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 10*time.Second),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// CheckSecrets refuses the built-in development session secrets in prod.
func (c Config) CheckSecrets() error {
	if c.Env != "prod" {
		return nil
	}

	var missing []string
	if c.SessionSecret == devSessionSecret {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.SessionHashKey == devSessionHashKey {
		missing = append(missing, "SESSION_HASH_KEY")
	}
	if c.SessionBlockKey == devSessionBlockKey {
		missing = append(missing, "SESSION_BLOCK_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("refusing to start in prod with development defaults for %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location resolves the configured timezone used to decide what "today" is.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "rental")
	pass := getEnv("DB_PASSWORD", "rental")
	name := getEnv("DB_NAME", "rental")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an int, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a number, using %v\n", key, v, fallback)
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a duration, using %s\n", key, v, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
