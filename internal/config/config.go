package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// StoreDriver picks the persistence strategy: "postgres" or "file".
	StoreDriver string
	DBURL       string
	DataDir     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TokenSecret peppers the HMAC fingerprints of session and reset tokens.
	TokenSecret string
	SessionTTL  time.Duration
	ResetTTL    time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string
	OTLPEndpoint   string

	CellsCacheTTL time.Duration
	MaxBodyBytes  int64
}

func Load() Config {
	// .env is a dev convenience; missing file is fine
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver: getEnv("STORE_DRIVER", "postgres"),
		DBURL:       buildDBURL(),
		DataDir:     getEnv("DATA_DIR", "./data"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		TokenSecret: getEnv("TOKEN_SECRET", "dev-only-secret"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 24*time.Hour),
		ResetTTL:    getEnvDuration("RESET_TTL", 30*time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://127.0.0.1:5500")),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),

		CellsCacheTTL: getEnvDuration("CELLS_CACHE_TTL", 30*time.Second),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 2<<20)),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "gridtrack")
	pass := getEnv("DB_PASSWORD", "gridtrack")
	name := getEnv("DB_NAME", "gridtrack")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout is a tiny convenience for the request-scoped store calls.
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

		if err == nil {
			return num
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err == nil {
			return d
		}
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
